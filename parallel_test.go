package rotator

import (
	"context"
	"math"
	"testing"
)

// TestConvertParallel tests that parallel chunk rendering produces the same
// output as sequential rendering.
func TestConvertParallel(t *testing.T) {
	const (
		sampleRate = 8000
		numSamples = 8000 * 23 // 23 seconds: five 5 s chunks, the last one short
		freq       = 440.0
	)

	// Create stereo sine wave input
	left := make([]float64, numSamples)
	right := make([]float64, numSamples)
	for i := range numSamples {
		// Use different phases for each channel to ensure they're processed independently
		left[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		right[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate+math.Pi/4)
	}

	input, err := NewStereoBuffer(left, right, sampleRate)
	if err != nil {
		t.Fatalf("Failed to create input: %v", err)
	}

	configSeq := Config{
		Params:  Params{SpeedHz: 0.25, Depth: 0.8, ReverbIntensity: 0.4},
		Quality: QualityHigh,
		Workers: 1,
		Seed:    42,
	}
	configPar := configSeq
	configPar.Workers = 4

	outputSeq, err := Convert(context.Background(), input, configSeq)
	if err != nil {
		t.Fatalf("Sequential Convert failed: %v", err)
	}

	outputPar, err := Convert(context.Background(), input, configPar)
	if err != nil {
		t.Fatalf("Parallel Convert failed: %v", err)
	}

	// Verify outputs have same shape
	if outputSeq.NumChannels() != outputPar.NumChannels() {
		t.Fatalf("Channel count mismatch: seq=%d, par=%d", outputSeq.NumChannels(), outputPar.NumChannels())
	}
	if outputSeq.Frames() != numSamples || outputPar.Frames() != numSamples {
		t.Fatalf("Frame count mismatch: seq=%d, par=%d, want %d", outputSeq.Frames(), outputPar.Frames(), numSamples)
	}

	for ch := range stereoChannels {
		// Verify outputs are identical (bit-exact)
		for i := range outputSeq.Channels[ch] {
			if outputSeq.Channels[ch][i] != outputPar.Channels[ch][i] {
				t.Errorf("Channel %d sample %d mismatch: seq=%v, par=%v",
					ch, i, outputSeq.Channels[ch][i], outputPar.Channels[ch][i])
				break
			}
		}
	}
}

// TestConvertParallelInputUnchanged verifies that rendering never writes into
// the input buffer.
func TestConvertParallelInputUnchanged(t *testing.T) {
	const (
		sampleRate = 8000
		numSamples = 8000 * 12
	)

	left := make([]float64, numSamples)
	right := make([]float64, numSamples)
	for i := range numSamples {
		left[i] = float64(i%200)/200 - 0.5 // Simple sawtooth
		right[i] = -left[i]
	}
	leftCopy := append([]float64(nil), left...)
	rightCopy := append([]float64(nil), right...)

	input, err := NewStereoBuffer(left, right, sampleRate)
	if err != nil {
		t.Fatalf("Failed to create input: %v", err)
	}

	_, err = Convert(context.Background(), input, Config{
		Params:  DefaultParams(),
		Quality: QualityHigh,
		Seed:    1,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	for i := range numSamples {
		if left[i] != leftCopy[i] || right[i] != rightCopy[i] {
			t.Fatalf("Input modified at sample %d", i)
		}
	}
}
