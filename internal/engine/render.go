// Package engine implements the per-chunk effect chain: rotation panning,
// gain automation and dry/wet convolution reverb.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"

	"github.com/tphakala/go-audio-rotator/internal/envelope"
	"github.com/tphakala/go-audio-rotator/internal/pcm"
	"github.com/tphakala/go-audio-rotator/internal/reverb"
)

var (
	// ErrInvalidChunk indicates input that the effect chain cannot process.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrNumeric indicates that rendering produced NaN or Inf samples.
	ErrNumeric = errors.New("numeric instability")
)

// Render runs one chunk through the effect chain:
//
//	input -> pan -> gain -> dry·(1-intensity) + conv(·, ir)·intensity -> output
//
// With a nil impulse response the output is the panned, gained signal at
// full scale. Reverb tails do not extend past the chunk. The returned buffer
// has exactly as many frames as the input.
func Render(in *pcm.Buffer, curve *envelope.Curve, ir *reverb.ImpulseResponse, intensity float64) (*pcm.Buffer, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}
	if in.NumChannels() != stereoChannels {
		return nil, fmt.Errorf("%w: need %d channels, got %d", ErrInvalidChunk, stereoChannels, in.NumChannels())
	}
	frames := in.Frames()
	if curve == nil || curve.Len() < frames {
		return nil, fmt.Errorf("%w: automation curve shorter than chunk (%d frames)", ErrInvalidChunk, frames)
	}

	out, err := pcm.New(stereoChannels, frames, in.SampleRate)
	if err != nil {
		return nil, err
	}

	applyRotation(out, in, curve)

	if ir != nil {
		mixReverb(out, ir, intensity)
	}

	for ch := range stereoChannels {
		if !isFinite(out.Channels[ch]) {
			return nil, fmt.Errorf("%w: channel %d", ErrNumeric, ch)
		}
	}
	return out, nil
}

// applyRotation writes the panned and gained input into out.
func applyRotation(out, in *pcm.Buffer, curve *envelope.Curve) {
	inL, inR := in.Channels[0], in.Channels[1]
	outL, outR := out.Channels[0], out.Channels[1]

	for i := range inL {
		l, r := PanStereo(inL[i], inR[i], curve.Pan[i])
		g := curve.Gain[i]
		outL[i] = l * g
		outR[i] = r * g
	}
}

// mixReverb replaces each channel of buf with the dry/wet blend, convolving
// channel ch with impulse response channel ch.
func mixReverb(buf *pcm.Buffer, ir *reverb.ImpulseResponse, intensity float64) {
	wet := make([]float64, buf.Frames())

	for ch := range stereoChannels {
		dry := buf.Channels[ch]

		conv := NewConvolver(ir.Channels[ch])
		if conv == nil {
			continue
		}
		conv.Convolve(wet, dry)

		f64.Scale(dry, dry, 1-intensity)
		f64.Scale(wet, wet, intensity)
		for i, w := range wet {
			dry[i] += w
		}
	}
}

// isFinite reports whether s holds no NaN or Inf. NaN and Inf propagate
// through the sum, so the full scan only runs when the sum looks wrong.
func isFinite(s []float64) bool {
	sum := f64.Sum(s)
	if !math.IsNaN(sum) && !math.IsInf(sum, 0) {
		return true
	}
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
