package engine

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-rotator/internal/envelope"
	"github.com/tphakala/go-audio-rotator/internal/pcm"
	"github.com/tphakala/go-audio-rotator/internal/reverb"
	"github.com/tphakala/go-audio-rotator/internal/testutil"
)

const testRate = 8000

func stereoInput(t *testing.T, frames int) *pcm.Buffer {
	t.Helper()
	b, err := pcm.FromChannels(testRate,
		testutil.Sine(frames, 220, testRate, 0.5),
		testutil.Noise(frames, 11, 0.3),
	)
	require.NoError(t, err)
	return b
}

func curveFor(t *testing.T, start float64, frames int, speed, depth float64) *envelope.Curve {
	t.Helper()
	c, err := envelope.GenerateFrames(start, frames, testRate, speed, depth)
	require.NoError(t, err)
	return c
}

// =============================================================================
// Dry Path Tests
// =============================================================================

func TestRender_NoReverbIsDryPath(t *testing.T) {
	const frames = 4000
	in := stereoInput(t, frames)
	curve := curveFor(t, 2.5, frames, 0.7, 0.9)

	out, err := Render(in, curve, nil, 0)
	require.NoError(t, err)
	require.Equal(t, frames, out.Frames())

	for i := range frames {
		l, r := PanStereo(in.Channels[0][i], in.Channels[1][i], curve.Pan[i])
		assert.InDelta(t, l*curve.Gain[i], out.Channels[0][i], 0)
		assert.InDelta(t, r*curve.Gain[i], out.Channels[1][i], 0)
	}
}

func TestRender_StaticCenterIsIdentity(t *testing.T) {
	in := stereoInput(t, 1000)
	curve := curveFor(t, 0, 1000, 0, 0)

	out, err := Render(in, curve, nil, 0)
	require.NoError(t, err)
	testutil.AssertSlicesInDelta(t, in.Channels[0], out.Channels[0], 0)
	testutil.AssertSlicesInDelta(t, in.Channels[1], out.Channels[1], 0)
}

func TestRender_DoesNotModifyInput(t *testing.T) {
	in := stereoInput(t, 500)
	before := in.Slice(0, 500)

	_, err := Render(in, curveFor(t, 0, 500, 1, 1), reverb.Synthesize(testRate, 0.5, rand.NewPCG(1, 1)), 0.5)
	require.NoError(t, err)
	assert.Equal(t, before.Channels, in.Channels)
}

// =============================================================================
// Reverb Mix Tests
// =============================================================================

func TestRender_UnitImpulseReverbPreservesDry(t *testing.T) {
	const frames = 3000
	in := stereoInput(t, frames)
	curve := curveFor(t, 0, frames, 0.5, 1)

	dry, err := Render(in, curve, nil, 0)
	require.NoError(t, err)

	// A unit impulse makes wet == dry, so any intensity blends back to dry.
	ir := &reverb.ImpulseResponse{SampleRate: testRate}
	for ch := range reverb.Channels {
		ir.Channels[ch] = make([]float64, 2*testRate)
		ir.Channels[ch][0] = 1
	}

	for _, intensity := range []float64{0.2, 0.5, 1} {
		out, err := Render(in, curve, ir, intensity)
		require.NoError(t, err)
		testutil.AssertSlicesInDelta(t, dry.Channels[0], out.Channels[0], 1e-12)
		testutil.AssertSlicesInDelta(t, dry.Channels[1], out.Channels[1], 1e-12)
	}
}

func TestRender_WetMatchesConvolution(t *testing.T) {
	const (
		frames    = 2500
		intensity = 0.4
	)
	in := stereoInput(t, frames)
	curve := curveFor(t, 1, frames, 0.3, 0.6)
	ir := reverb.Synthesize(testRate, intensity, rand.NewPCG(8, 8))

	dry, err := Render(in, curve, nil, 0)
	require.NoError(t, err)
	out, err := Render(in, curve, ir, intensity)
	require.NoError(t, err)
	require.Equal(t, frames, out.Frames(), "reverb tail must be dropped")

	for ch := range 2 {
		wet := naiveConvolve(dry.Channels[ch], ir.Channels[ch][:frames])
		want := make([]float64, frames)
		for i := range want {
			want[i] = dry.Channels[ch][i]*(1-intensity) + wet[i]*intensity
		}
		testutil.AssertSlicesInDelta(t, want, out.Channels[ch], 1e-9)
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestRender_RejectsMono(t *testing.T) {
	mono, err := pcm.New(1, 10, testRate)
	require.NoError(t, err)

	_, err = Render(mono, curveFor(t, 0, 10, 1, 1), nil, 0)
	require.ErrorIs(t, err, ErrInvalidChunk)
}

func TestRender_RejectsShortCurve(t *testing.T) {
	_, err := Render(stereoInput(t, 100), curveFor(t, 0, 99, 1, 1), nil, 0)
	require.ErrorIs(t, err, ErrInvalidChunk)

	_, err = Render(stereoInput(t, 100), nil, nil, 0)
	require.ErrorIs(t, err, ErrInvalidChunk)
}

func TestRender_ReportsNumericFailure(t *testing.T) {
	in := stereoInput(t, 100)
	in.Channels[1][42] = math.NaN()

	_, err := Render(in, curveFor(t, 0, 100, 1, 1), nil, 0)
	require.ErrorIs(t, err, ErrNumeric)
}

func TestRender_EmptyChunk(t *testing.T) {
	in, err := pcm.New(2, 0, testRate)
	require.NoError(t, err)

	out, err := Render(in, curveFor(t, 0, 0, 1, 1), reverb.Synthesize(testRate, 1, nil), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Frames())
}
