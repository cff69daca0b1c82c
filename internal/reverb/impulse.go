// Package reverb synthesizes the impulse response used by the convolution
// reverb: stereo white noise under an exponential decay.
package reverb

import (
	"math"
	"math/rand/v2"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/stat/distuv"
)

// Impulse response shape.
const (
	// LengthSeconds is the impulse response duration.
	LengthSeconds = 2

	// DecaySeconds is the exponential decay time constant.
	DecaySeconds = 0.5

	// Channels is the number of impulse response channels.
	Channels = 2
)

// Normalization constants, matching the default behaviour of browser
// convolver nodes.
const (
	gainCalibration           = 0.00125
	gainCalibrationSampleRate = 44100.0
	minPower                  = 0.000125
)

// ImpulseResponse is a stereo convolution kernel.
type ImpulseResponse struct {
	Channels   [Channels][]float64
	SampleRate int
	Intensity  float64
}

// Synthesize builds a 2-channel, LengthSeconds long impulse response where
// sample i is u * exp(-i / (DecaySeconds*sampleRate)) * intensity, u drawn
// uniformly from [-1, 1).
//
// It returns nil when intensity <= 0: the reverb stage is skipped entirely.
// A nil src seeds a fresh generator, so consecutive calls differ; pass a
// seeded source for reproducible output.
func Synthesize(sampleRate int, intensity float64, src rand.Source) *ImpulseResponse {
	if intensity <= 0 || sampleRate <= 0 {
		return nil
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	noise := distuv.Uniform{Min: -1, Max: 1, Src: src}
	frames := LengthSeconds * sampleRate
	tau := float64(sampleRate) * DecaySeconds

	ir := &ImpulseResponse{SampleRate: sampleRate, Intensity: intensity}
	for ch := range Channels {
		data := make([]float64, frames)
		for i := range data {
			data[i] = noise.Rand() * math.Exp(-float64(i)/tau) * intensity
		}
		ir.Channels[ch] = data
	}
	return ir
}

// Frames returns the kernel length per channel.
func (ir *ImpulseResponse) Frames() int { return len(ir.Channels[0]) }

// Energy returns the summed squared amplitude of channel ch.
func (ir *ImpulseResponse) Energy(ch int) float64 {
	data := ir.Channels[ch]
	return f64.DotProduct(data, data)
}

// Normalize rescales the kernel so that its RMS power maps to a fixed
// calibration level, independent of intensity and sample rate.
func (ir *ImpulseResponse) Normalize() {
	frames := ir.Frames()
	if frames == 0 {
		return
	}

	var sum float64
	for ch := range Channels {
		sum += ir.Energy(ch)
	}
	power := math.Sqrt(sum / float64(Channels*frames))
	if math.IsNaN(power) || math.IsInf(power, 0) || power < minPower {
		power = minPower
	}

	scale := gainCalibration / power * gainCalibrationSampleRate / float64(ir.SampleRate)
	for ch := range Channels {
		f64.Scale(ir.Channels[ch], ir.Channels[ch], scale)
	}
}
