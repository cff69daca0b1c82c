// Package pipeline splits a conversion into time-bounded chunks, renders
// them on a bounded worker pool and reassembles the results.
//
// Chunk sample ranges are always derived from chunk times with the same
// rounding rule (floor for the start, ceil for the end), so adjacent chunks
// neither overlap nor leave gaps. Each chunk owns a disjoint range of the
// output buffer, which makes the write step safe without locking.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/go-audio-rotator/internal/pcm"
)

// Tier selects the chunk size.
type Tier int

const (
	// TierHigh renders 5 second chunks.
	TierHigh Tier = iota

	// TierMedium renders 10 second chunks.
	TierMedium

	// TierLow renders 20 second chunks.
	TierLow
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

var (
	// ErrInvalidInput indicates a plan or run request that cannot start.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled indicates that the run stopped because cancellation was
	// requested. It is a terminal state, not a failure.
	ErrCancelled = errors.New("conversion cancelled")

	// ErrRenderFailure indicates that a chunk failed to render.
	ErrRenderFailure = errors.New("render failure")
)

// Window is one chunk of the timeline.
type Window struct {
	Index       int
	StartTime   float64 // seconds
	EndTime     float64 // seconds, <= total duration
	StartSample int     // floor(StartTime * rate)
	Frames      int     // ceil(EndTime * rate) - StartSample
}

// EndSample returns the exclusive end of the window's sample range.
func (w Window) EndSample() int { return w.StartSample + w.Frames }

// Duration returns the window length in seconds.
func (w Window) Duration() float64 { return w.EndTime - w.StartTime }

// ChunkSeconds returns the chunk size for a tier and total duration.
func ChunkSeconds(duration float64, tier Tier) (float64, error) {
	var size float64
	switch tier {
	case TierHigh:
		size = chunkSecondsHigh
	case TierMedium:
		size = chunkSecondsMedium
	case TierLow:
		size = chunkSecondsLow
	default:
		return 0, fmt.Errorf("%w: unknown quality tier %v", ErrInvalidInput, tier)
	}

	if duration > longInputSeconds {
		size = math.Max(size, longChunkSeconds)
	}
	return size, nil
}

// Plan partitions [0, duration) into ceil(duration/chunkSize) windows.
// The last window ends at duration and may be shorter than the rest.
func Plan(duration float64, sampleRate int, tier Tier) ([]Window, error) {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidInput, duration)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive", ErrInvalidInput)
	}

	size, err := ChunkSeconds(duration, tier)
	if err != nil {
		return nil, err
	}

	count := int(math.Ceil(duration / size))
	rate := float64(sampleRate)
	windows := make([]Window, 0, count+defaultWindowSlack)

	for i := range count {
		start := float64(i) * size
		end := math.Min(start+size, duration)
		startSample := int(math.Floor(start * rate))
		endSample := int(math.Ceil(end * rate))

		windows = append(windows, Window{
			Index:       i,
			StartTime:   start,
			EndTime:     end,
			StartSample: startSample,
			Frames:      endSample - startSample,
		})
	}
	return windows, nil
}

// PlanFrames plans a buffer of the given frame count. Sample ranges are
// clamped to the buffer, so rounding at the final boundary can never run
// past the last frame.
func PlanFrames(frames, sampleRate int, tier Tier) ([]Window, error) {
	if frames < 1 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive", ErrInvalidInput)
	}

	windows, err := Plan(float64(frames)/float64(sampleRate), sampleRate, tier)
	if err != nil {
		return nil, err
	}

	for i := range windows {
		w := &windows[i]
		w.StartSample = min(w.StartSample, frames)
		w.Frames = min(w.EndSample(), frames) - w.StartSample
	}
	// The last window always reaches the final frame.
	last := &windows[len(windows)-1]
	last.Frames = frames - last.StartSample
	return windows, nil
}

// Progress describes scheduler state after a chunk completes.
type Progress struct {
	Index     int // chunk that just completed
	Completed int // chunks completed so far
	Total     int
}

// Fraction returns Completed/Total in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// RenderFunc renders one chunk. chunk holds a private copy of the window's
// input frames; the result must have the same channel and frame count.
type RenderFunc func(ctx context.Context, w Window, chunk *pcm.Buffer) (*pcm.Buffer, error)

// Spec configures a Run.
type Spec struct {
	Input  *pcm.Buffer
	Tier   Tier
	Render RenderFunc

	// Workers bounds the number of chunks rendered concurrently.
	// Zero or negative uses runtime.GOMAXPROCS(0); 1 renders sequentially.
	Workers int

	// OnProgress is called after each completed chunk, serialized and with
	// Completed strictly increasing. Optional.
	OnProgress func(Progress)

	// Cancelled is polled before each chunk is submitted. Optional; context
	// cancellation is observed the same way.
	Cancelled func() bool
}

// Run renders every window of spec.Input and returns the reassembled buffer.
//
// Cancellation is cooperative: no new chunk starts once it is observed,
// chunks already rendering finish, and Run returns ErrCancelled. The first
// chunk failure stops further submission and is returned wrapped in
// ErrRenderFailure. No partial buffer is returned in either case.
func Run(ctx context.Context, spec Spec) (*pcm.Buffer, error) {
	if spec.Render == nil {
		return nil, fmt.Errorf("%w: no render function", ErrInvalidInput)
	}
	if err := spec.Input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	windows, err := PlanFrames(spec.Input.Frames(), spec.Input.SampleRate, spec.Tier)
	if err != nil {
		return nil, err
	}

	out, err := pcm.New(spec.Input.NumChannels(), spec.Input.Frames(), spec.Input.SampleRate)
	if err != nil {
		return nil, err
	}

	workers := spec.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	s := &scheduler{spec: spec, out: out, total: len(windows)}

	g, gctx := errgroup.WithContext(ctx)

	// A worker slot is taken before the cancellation check, so the check
	// runs right before the chunk would start rendering.
	slots := make(chan struct{}, workers)

	cancelled := false
	for _, w := range windows {
		select {
		case slots <- struct{}{}:
		case <-gctx.Done():
		}
		if s.cancelRequested(ctx) {
			cancelled = true
			break
		}
		if s.failed.Load() || gctx.Err() != nil {
			break // an earlier chunk failed
		}

		g.Go(func() error {
			err := s.renderChunk(gctx, w)
			if err != nil {
				s.failed.Store(true)
			}
			<-slots
			return err
		})
	}

	err = g.Wait()
	if cancelled {
		return nil, ErrCancelled
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scheduler holds the state shared by the chunk goroutines of one Run.
type scheduler struct {
	spec  Spec
	out   *pcm.Buffer
	total int

	failed atomic.Bool

	mu        sync.Mutex
	completed int
}

func (s *scheduler) cancelRequested(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return s.spec.Cancelled != nil && s.spec.Cancelled()
}

func (s *scheduler) renderChunk(ctx context.Context, w Window) error {
	chunk := s.spec.Input.Slice(w.StartSample, w.Frames)

	rendered, err := s.spec.Render(ctx, w, chunk)
	if err != nil {
		return fmt.Errorf("%w: chunk %d: %w", ErrRenderFailure, w.Index, err)
	}
	if rendered == nil || rendered.NumChannels() != s.out.NumChannels() || rendered.Frames() != w.Frames {
		return fmt.Errorf("%w: chunk %d: rendered shape does not match window (%d frames)",
			ErrRenderFailure, w.Index, w.Frames)
	}

	// Windows own disjoint ranges of out, so no lock is needed here.
	if _, err := s.out.WriteAt(w.StartSample, rendered); err != nil {
		return fmt.Errorf("%w: chunk %d: %w", ErrRenderFailure, w.Index, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
	if s.spec.OnProgress != nil {
		s.spec.OnProgress(Progress{Index: w.Index, Completed: s.completed, Total: s.total})
	}
	return nil
}
