package rotator

import (
	"context"
)

// Common sample rates for convenience functions.
const (
	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateDAT is the DAT/DVD sample rate.
	RateDAT = 48000
)

// DefaultParams returns a slow full-width rotation with light reverb:
// 0.1 Hz, depth 1, reverb 0.3.
func DefaultParams() Params {
	return Params{
		SpeedHz:         defaultSpeedHz,
		Depth:           defaultDepth,
		ReverbIntensity: defaultReverbIntensity,
	}
}

// DryParams returns DefaultParams without reverb.
func DryParams() Params {
	p := DefaultParams()
	p.ReverbIntensity = 0
	return p
}

// Convert renders input with the 8D effect and returns the result.
// It is a shorthand for NewJob followed by Job.Render.
func Convert(ctx context.Context, input *Buffer, config Config) (*Buffer, error) {
	job, err := NewJob(input, config)
	if err != nil {
		return nil, err
	}
	return job.Render(ctx)
}

// ConvertToWAV renders input and encodes the result as a 16-bit PCM WAV
// file. It is a shorthand for NewJob followed by Job.Run.
func ConvertToWAV(ctx context.Context, input *Buffer, config Config) ([]byte, error) {
	job, err := NewJob(input, config)
	if err != nil {
		return nil, err
	}
	return job.Run(ctx)
}

// RotateStereo is a convenience function for one-shot conversion of two
// channel slices. The seed is fixed, so equal inputs give equal outputs.
func RotateStereo(left, right []float64, sampleRate int, params Params, quality Quality) (leftOut, rightOut []float64, err error) {
	input, err := NewStereoBuffer(left, right, sampleRate)
	if err != nil {
		return nil, nil, err
	}

	out, err := Convert(context.Background(), input, Config{
		Params:  params,
		Quality: quality,
		Seed:    rotateStereoSeed,
	})
	if err != nil {
		return nil, nil, err
	}
	return out.Channels[0], out.Channels[1], nil
}

// InterleaveToStereo converts two mono channels to interleaved stereo.
// Output format: [L0, R0, L1, R1, L2, R2, ...]
func InterleaveToStereo(left, right []float64) []float64 {
	minLen := min(len(left), len(right))
	result := make([]float64, minLen*stereoChannels)
	for i := range minLen {
		result[i*stereoChannels] = left[i]
		result[i*stereoChannels+1] = right[i]
	}
	return result
}

// DeinterleaveFromStereo converts interleaved stereo to two mono channels.
// Input format: [L0, R0, L1, R1, L2, R2, ...]
func DeinterleaveFromStereo(interleaved []float64) (left, right []float64) {
	numSamples := len(interleaved) / stereoChannels
	left = make([]float64, numSamples)
	right = make([]float64, numSamples)
	for i := range numSamples {
		left[i] = interleaved[i*stereoChannels]
		right[i] = interleaved[i*stereoChannels+1]
	}
	return left, right
}
