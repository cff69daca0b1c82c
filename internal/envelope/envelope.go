// Package envelope computes the rotation automation curves: a sinusoidal pan
// position and a cosine-locked attenuation that together make a source appear
// to orbit the listener.
//
// The curve is a pure function of absolute time. Chunks pass their absolute
// start time so that curves generated per chunk line up with a curve generated
// over the whole signal.
package envelope

import (
	"errors"
	"fmt"
	"math"
)

// Gain range of the rotation envelope in dB. The envelope only attenuates.
const (
	MinGainDB = -8.0
	MaxGainDB = 0.0
)

const (
	twoPi      = 2 * math.Pi
	dbPerGain  = MaxGainDB - MinGainDB
	dbToLinear = 20.0
)

// ErrInvalidParams is returned for a negative speed, out of range depth or a
// non-positive sample rate.
var ErrInvalidParams = errors.New("invalid envelope parameters")

// Point is one automation sample.
type Point struct {
	Time float64 // seconds, chunk-local
	Pan  float64 // [-depth, depth]
	Gain float64 // linear, (10^-0.4, 1]
}

// Curve is a materialized automation schedule sampled at the native rate.
type Curve struct {
	StartTime  float64
	SampleRate int
	Pan        []float64
	Gain       []float64
}

// PointAt evaluates the rotation at absolute time t (seconds).
func PointAt(t, speedHz, depth float64) (pan, gain float64) {
	angle := twoPi * speedHz * t
	pan = math.Sin(angle) * depth

	g := (math.Cos(angle) + 1) / 2
	gain = math.Pow(10, GainDB(g)/dbToLinear)
	return pan, gain
}

// GainDB maps a normalized gain position in [0, 1] onto [MinGainDB, MaxGainDB].
func GainDB(g float64) float64 {
	return MinGainDB + dbPerGain*g
}

// Generate samples the rotation over a chunk of the given duration starting
// at absolute time startTime. It produces ceil(duration*sampleRate) points,
// point i being at local time i/sampleRate.
func Generate(startTime, duration float64, sampleRate int, speedHz, depth float64) (*Curve, error) {
	if duration < 0 {
		return nil, fmt.Errorf("%w: negative duration %v", ErrInvalidParams, duration)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive", ErrInvalidParams)
	}
	return GenerateFrames(startTime, int(math.Ceil(duration*float64(sampleRate))), sampleRate, speedHz, depth)
}

// GenerateFrames is like Generate but takes the point count directly, so the
// curve can match a chunk's frame count exactly.
func GenerateFrames(startTime float64, frames, sampleRate int, speedHz, depth float64) (*Curve, error) {
	if err := validate(frames, sampleRate, speedHz, depth); err != nil {
		return nil, err
	}

	c := &Curve{
		StartTime:  startTime,
		SampleRate: sampleRate,
		Pan:        make([]float64, frames),
		Gain:       make([]float64, frames),
	}

	// Time comes from the integer index; accumulating 1/sampleRate drifts
	// over long chunks.
	rate := float64(sampleRate)
	for i := range frames {
		c.Pan[i], c.Gain[i] = PointAt(startTime+float64(i)/rate, speedHz, depth)
	}
	return c, nil
}

func validate(frames, sampleRate int, speedHz, depth float64) error {
	switch {
	case frames < 0:
		return fmt.Errorf("%w: negative frame count %d", ErrInvalidParams, frames)
	case sampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidParams)
	case speedHz < 0 || math.IsNaN(speedHz) || math.IsInf(speedHz, 0):
		return fmt.Errorf("%w: speed %v Hz", ErrInvalidParams, speedHz)
	case depth < 0 || depth > 1 || math.IsNaN(depth):
		return fmt.Errorf("%w: depth %v outside [0, 1]", ErrInvalidParams, depth)
	}
	return nil
}

// Len returns the number of points.
func (c *Curve) Len() int { return len(c.Pan) }

// Point returns point i. Indices past the end hold the last value, as an
// automation lane does after its final event.
func (c *Curve) Point(i int) Point {
	n := len(c.Pan)
	if n == 0 {
		return Point{Time: float64(i) / float64(c.SampleRate), Gain: 1}
	}
	j := min(max(i, 0), n-1)
	return Point{
		Time: float64(i) / float64(c.SampleRate),
		Pan:  c.Pan[j],
		Gain: c.Gain[j],
	}
}

// ValueAt returns pan and gain at chunk-local time t, interpolating linearly
// between neighbouring points.
func (c *Curve) ValueAt(t float64) (pan, gain float64) {
	n := len(c.Pan)
	if n == 0 {
		return 0, 1
	}

	pos := t * float64(c.SampleRate)
	if pos <= 0 {
		return c.Pan[0], c.Gain[0]
	}
	i := int(pos)
	if i >= n-1 {
		return c.Pan[n-1], c.Gain[n-1]
	}

	frac := pos - float64(i)
	pan = c.Pan[i] + frac*(c.Pan[i+1]-c.Pan[i])
	gain = c.Gain[i] + frac*(c.Gain[i+1]-c.Gain[i])
	return pan, gain
}
