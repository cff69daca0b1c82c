package rotator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tphakala/go-audio-rotator/internal/pcm"
	"github.com/tphakala/go-audio-rotator/internal/pipeline"
)

// Buffer is a planar float64 PCM buffer: one slice per channel plus the
// sample rate. Conversion input and output are both Buffers.
type Buffer = pcm.Buffer

// NewBuffer allocates a zeroed buffer.
func NewBuffer(channels, frames, sampleRate int) (*Buffer, error) {
	return pcm.New(channels, frames, sampleRate)
}

// NewStereoBuffer wraps left and right channel slices without copying.
// Both channels must have the same length.
func NewStereoBuffer(left, right []float64, sampleRate int) (*Buffer, error) {
	return pcm.FromChannels(sampleRate, left, right)
}

// Params controls the rotation effect.
type Params struct {
	// SpeedHz is the number of full rotations per second. Zero holds the
	// source at the front, centered.
	SpeedHz float64

	// Depth scales the pan sweep, 0 (none) to 1 (hard left to hard right).
	Depth float64

	// ReverbIntensity is the wet/dry balance of the synthetic room, 0 to 1.
	// Zero skips the reverb stage entirely.
	ReverbIntensity float64
}

// Validate checks that every parameter is finite and in range.
func (p Params) Validate() error {
	if p.SpeedHz < 0 || math.IsNaN(p.SpeedHz) || math.IsInf(p.SpeedHz, 0) {
		return fmt.Errorf("%w: rotation speed must be a finite value >= 0, got %v", ErrInvalidInput, p.SpeedHz)
	}

	if !inUnitRange(p.Depth) {
		return fmt.Errorf("%w: rotation depth must be in [0, 1], got %v", ErrInvalidInput, p.Depth)
	}

	if !inUnitRange(p.ReverbIntensity) {
		return fmt.Errorf("%w: reverb intensity must be in [0, 1], got %v", ErrInvalidInput, p.ReverbIntensity)
	}

	return nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1 // false for NaN
}

// Quality selects the chunk size used while rendering. Smaller chunks report
// progress more often and respond to cancellation sooner.
type Quality = pipeline.Tier

const (
	// QualityHigh renders in 5 second chunks.
	QualityHigh = pipeline.TierHigh

	// QualityMedium renders in 10 second chunks.
	QualityMedium = pipeline.TierMedium

	// QualityLow renders in 20 second chunks.
	QualityLow = pipeline.TierLow
)

// ParseQuality maps "high", "medium" or "low" (any case) to a Quality.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return QualityHigh, nil
	case "medium", "":
		return QualityMedium, nil
	case "low":
		return QualityLow, nil
	default:
		return QualityMedium, fmt.Errorf("%w: unknown quality %q (want high, medium or low)", ErrInvalidInput, s)
	}
}

// ChunkSeconds returns the chunk size used for an input of the given
// duration. Inputs longer than five minutes use at least 30 second chunks.
func ChunkSeconds(duration float64, quality Quality) (float64, error) {
	return pipeline.ChunkSeconds(duration, quality)
}

// Config holds conversion configuration.
type Config struct {
	// Params controls the rotation effect.
	Params Params

	// Quality determines the chunk size.
	Quality Quality

	// Workers bounds the number of chunks rendered in parallel.
	// Zero uses runtime.GOMAXPROCS(0); 1 renders chunks strictly in order.
	// The output does not depend on the worker count.
	Workers int

	// Seed makes the reverb noise reproducible. Zero picks a random seed
	// per job; Job.Seed reports the one in use.
	Seed uint64

	// NormalizeReverb scales each impulse response by its RMS power the way
	// browser convolver nodes do, which keeps loud reverb from clipping.
	NormalizeReverb bool

	// OnProgress receives progress events. Calls are serialized and Percent
	// never decreases. Optional.
	OnProgress func(Progress)
}

// DefaultConfig returns the configuration used by the command line tool
// when no flags are given.
func DefaultConfig() Config {
	return Config{
		Params:  DefaultParams(),
		Quality: QualityMedium,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}

	switch c.Quality {
	case QualityHigh, QualityMedium, QualityLow:
	default:
		return fmt.Errorf("%w: unknown quality %v", ErrInvalidInput, c.Quality)
	}

	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidInput, c.Workers)
	}

	return nil
}

// Common errors returned by conversions.
var (
	// ErrInvalidInput indicates an input buffer or configuration that cannot
	// be converted: empty or non-stereo audio, out-of-range parameters.
	ErrInvalidInput = pipeline.ErrInvalidInput

	// ErrCancelled indicates the conversion was stopped by Job.Cancel or by
	// context cancellation. No output is produced.
	ErrCancelled = pipeline.ErrCancelled

	// ErrRenderFailure indicates that a chunk failed to render. No output is
	// produced.
	ErrRenderFailure = pipeline.ErrRenderFailure
)

// Outcome is the terminal state of a conversion.
type Outcome int

const (
	// OutcomeSuccess means the full output was produced.
	OutcomeSuccess Outcome = iota

	// OutcomeCancelled means the conversion was cancelled.
	OutcomeCancelled

	// OutcomeFailed means the conversion failed.
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Classify maps an error returned by a conversion to its Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrCancelled):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// Stage identifies the phase a progress event belongs to.
type Stage int

const (
	// StageSetup is reported once before the first chunk is rendered.
	StageSetup Stage = iota

	// StageRender is reported after each completed chunk.
	StageRender

	// StageEncode is reported before the WAV encoder runs.
	StageEncode

	// StageDone is reported once the output is complete.
	StageDone
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageSetup:
		return "setup"
	case StageRender:
		return "render"
	case StageEncode:
		return "encode"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Progress is a conversion progress event.
type Progress struct {
	Stage Stage

	// Percent is overall completion. Rendering covers 30 to 90, encoding
	// finishes at 100.
	Percent float64

	// ChunkIndex is the chunk that just completed (StageRender only).
	ChunkIndex int

	// Completed is the number of chunks rendered so far.
	Completed int

	// TotalChunks is the number of chunks in the job.
	TotalChunks int
}

// renderPercent maps chunk completion onto the render band.
func renderPercent(completed, total int) float64 {
	if total <= 0 {
		return progressRenderStart
	}
	return progressRenderStart + float64(completed)/float64(total)*(progressRenderEnd-progressRenderStart)
}
