package rotator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/tphakala/go-audio-rotator/internal/engine"
	"github.com/tphakala/go-audio-rotator/internal/envelope"
	"github.com/tphakala/go-audio-rotator/internal/pcm"
	"github.com/tphakala/go-audio-rotator/internal/pipeline"
	"github.com/tphakala/go-audio-rotator/internal/reverb"
	"github.com/tphakala/go-audio-rotator/internal/wavenc"
)

// Job is a single conversion of one stereo input.
//
// A Job may be cancelled from any goroutine while Render or Run is in
// progress. Cancellation is observed between chunks: chunks already
// rendering finish, no further chunk starts, and the call returns
// ErrCancelled without output.
type Job struct {
	input   *Buffer
	config  Config
	windows []pipeline.Window
	seed    uint64

	cancelled atomic.Bool

	progressMu sync.Mutex
	lastPct    float64
}

// NewJob validates the input and configuration and plans the chunks.
// It does not start rendering.
func NewJob(input *Buffer, config Config) (*Job, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if input.NumChannels() != stereoChannels {
		return nil, fmt.Errorf("%w: input must be stereo, got %d channels", ErrInvalidInput, input.NumChannels())
	}

	windows, err := pipeline.PlanFrames(input.Frames(), input.SampleRate, config.Quality)
	if err != nil {
		return nil, err
	}

	seed := config.Seed
	for seed == 0 {
		seed = rand.Uint64()
	}

	return &Job{
		input:   input,
		config:  config,
		windows: windows,
		seed:    seed,
	}, nil
}

// Cancel requests cancellation. It is safe to call at any time and from any
// goroutine, more than once.
func (j *Job) Cancel() { j.cancelled.Store(true) }

// Cancelled reports whether Cancel has been called.
func (j *Job) Cancelled() bool { return j.cancelled.Load() }

// TotalChunks returns the number of chunks the input is split into.
func (j *Job) TotalChunks() int { return len(j.windows) }

// Windows returns a copy of the chunk plan.
func (j *Job) Windows() []pipeline.Window {
	return append([]pipeline.Window(nil), j.windows...)
}

// Seed returns the reverb seed in use. Passing it back through Config.Seed
// reproduces the output exactly.
func (j *Job) Seed() uint64 { return j.seed }

// Duration returns the input length in seconds.
func (j *Job) Duration() float64 { return j.input.Duration() }

// Render converts the input and returns the rendered buffer. The result has
// the input's frame count and sample rate.
func (j *Job) Render(ctx context.Context) (*Buffer, error) {
	total := len(j.windows)

	j.progressMu.Lock()
	j.lastPct = 0
	j.progressMu.Unlock()
	j.report(Progress{Stage: StageSetup, Percent: progressRenderStart, TotalChunks: total})

	return pipeline.Run(ctx, pipeline.Spec{
		Input:     j.input,
		Tier:      j.config.Quality,
		Render:    j.renderChunk,
		Workers:   j.config.Workers,
		Cancelled: j.Cancelled,
		OnProgress: func(p pipeline.Progress) {
			j.report(Progress{
				Stage:       StageRender,
				Percent:     renderPercent(p.Completed, p.Total),
				ChunkIndex:  p.Index,
				Completed:   p.Completed,
				TotalChunks: p.Total,
			})
		},
	})
}

// Encode writes buf to w as a 16-bit PCM WAV file.
func (j *Job) Encode(w io.Writer, buf *Buffer) error {
	total := len(j.windows)
	j.report(Progress{Stage: StageEncode, Percent: progressRenderEnd, Completed: total, TotalChunks: total})

	if err := wavenc.EncodeTo(w, buf); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	j.report(Progress{Stage: StageDone, Percent: progressDone, Completed: total, TotalChunks: total})
	return nil
}

// Run renders the input and returns the encoded WAV file.
func (j *Job) Run(ctx context.Context) ([]byte, error) {
	out, err := j.Render(ctx)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if h, err := wavenc.NewHeader(out.NumChannels(), out.SampleRate, out.Frames()); err == nil {
		b.Grow(h.FileSize())
	}
	if err := j.Encode(&b, out); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// renderChunk is the per-chunk effect chain: a rotation curve for the
// chunk's absolute time span, a freshly seeded impulse response and the
// engine's mix.
func (j *Job) renderChunk(_ context.Context, w pipeline.Window, chunk *pcm.Buffer) (*pcm.Buffer, error) {
	p := j.config.Params

	curve, err := envelope.GenerateFrames(w.StartTime, chunk.Frames(), chunk.SampleRate, p.SpeedHz, p.Depth)
	if err != nil {
		return nil, err
	}

	// Each chunk gets its own PCG stream so the noise does not depend on
	// which worker renders which chunk.
	ir := reverb.Synthesize(chunk.SampleRate, p.ReverbIntensity, rand.NewPCG(j.seed, uint64(w.Index)))
	if ir != nil && j.config.NormalizeReverb {
		ir.Normalize()
	}

	return engine.Render(chunk, curve, ir, p.ReverbIntensity)
}

// report forwards an event to the configured callback, dropping any that
// would move Percent backwards.
func (j *Job) report(p Progress) {
	if j.config.OnProgress == nil {
		return
	}

	j.progressMu.Lock()
	defer j.progressMu.Unlock()
	if p.Percent < j.lastPct {
		return
	}
	j.lastPct = p.Percent
	j.config.OnProgress(p)
}
