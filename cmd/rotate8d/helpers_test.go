package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rotator "github.com/tphakala/go-audio-rotator"
)

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"song.mp3", "song_8d.wav"},
		{"/music/album/track 01.ogg", "/music/album/track 01_8d.wav"},
		{"take.wav", "take_8d.wav"},
		{"noext", "noext_8d.wav"},
		{"dir.v2/clip.MP3", "dir.v2/clip_8d.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultOutputPath(tt.in))
		})
	}
}

func TestBuildConfig(t *testing.T) {
	cfg, err := buildConfig(options{
		speed:           defaultSpeedHz,
		depth:           defaultDepth,
		reverb:          defaultReverb,
		quality:         "low",
		workers:         2,
		seed:            7,
		normalizeReverb: true,
	})
	require.NoError(t, err)
	assert.Equal(t, rotator.QualityLow, cfg.Quality)
	assert.Equal(t, rotator.DefaultParams(), cfg.Params)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.True(t, cfg.NormalizeReverb)
}

func TestBuildConfig_Invalid(t *testing.T) {
	valid := options{speed: defaultSpeedHz, depth: defaultDepth, reverb: defaultReverb, quality: defaultQuality}

	tests := []struct {
		name   string
		mutate func(*options)
	}{
		{"bad quality", func(o *options) { o.quality = "best" }},
		{"negative speed", func(o *options) { o.speed = -1 }},
		{"depth above one", func(o *options) { o.depth = 2 }},
		{"reverb above one", func(o *options) { o.reverb = 1.5 }},
		{"negative workers", func(o *options) { o.workers = -3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			tt.mutate(&o)
			_, err := buildConfig(o)
			require.ErrorIs(t, err, rotator.ErrInvalidInput)
		})
	}
}

func TestFormatProgress(t *testing.T) {
	s := formatProgress(rotator.Progress{Stage: rotator.StageRender, Percent: 60, Completed: 4, TotalChunks: 8})
	assert.Equal(t, "["+strings.Repeat("#", 18)+strings.Repeat(" ", 12)+"]  60% render 4/8", s)

	s = formatProgress(rotator.Progress{Stage: rotator.StageDone, Percent: 100, Completed: 8, TotalChunks: 8})
	assert.Equal(t, "["+strings.Repeat("#", progressBarWidth)+"] 100% done", s)

	// Out-of-range values are clamped.
	s = formatProgress(rotator.Progress{Stage: rotator.StageEncode, Percent: 250})
	assert.Contains(t, s, "100% encode")
}

func TestProgressPrinter_LineMode(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out, false)
	assert.False(t, p.terminal)

	// Line mode logs through the standard logger; only the dedup state is
	// observable here.
	p.update(rotator.Progress{Stage: rotator.StageSetup, Percent: 30})
	assert.Equal(t, 3, p.logged)
	p.update(rotator.Progress{Stage: rotator.StageRender, Percent: 35})
	assert.Equal(t, 3, p.logged)
	p.update(rotator.Progress{Stage: rotator.StageRender, Percent: 41})
	assert.Equal(t, 4, p.logged)
	assert.Empty(t, out.String())
}

func TestProgressPrinter_TerminalMode(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out, true)

	p.update(rotator.Progress{Stage: rotator.StageSetup, Percent: 30, TotalChunks: 2})
	p.update(rotator.Progress{Stage: rotator.StageDone, Percent: 100, Completed: 2, TotalChunks: 2})

	s := out.String()
	assert.Equal(t, 2, strings.Count(s, "\r"))
	assert.True(t, strings.HasSuffix(s, "\n"))
	assert.Contains(t, s, "100% done")
}

func TestWriteOutput(t *testing.T) {
	const rate = 8000
	left := make([]float64, rate)
	right := make([]float64, rate)
	for i := range left {
		left[i] = float64(i%80)/80 - 0.5
		right[i] = -left[i]
	}
	input, err := rotator.NewStereoBuffer(left, right, rate)
	require.NoError(t, err)

	job, err := rotator.NewJob(input, rotator.Config{Params: rotator.DefaultParams(), Quality: rotator.QualityHigh, Seed: 3})
	require.NoError(t, err)
	out, err := job.Render(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "out_8d.wav")
	require.NoError(t, writeOutput(path, job, out))

	// Only the final file remains.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out_8d.wav", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(outputFileMode), info.Mode().Perm())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, rate, buf.Format.SampleRate)
	assert.Equal(t, 16, buf.SourceBitDepth)
	assert.Len(t, buf.Data, rate*2)
}

func TestWriteOutput_MissingDirectory(t *testing.T) {
	input, err := rotator.NewStereoBuffer([]float64{0, 0}, []float64{0, 0}, 8000)
	require.NoError(t, err)
	job, err := rotator.NewJob(input, rotator.DefaultConfig())
	require.NoError(t, err)

	err = writeOutput(filepath.Join(t.TempDir(), "missing", "out.wav"), job, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output file")
}

func TestInterleavePCM16(t *testing.T) {
	input, err := rotator.NewStereoBuffer([]float64{1, -1, 0}, []float64{0.5, 2, -2}, 8000)
	require.NoError(t, err)

	got := interleavePCM16(input)
	require.Len(t, got, 3*2*bytesPerSample16)

	want := []int16{32767, 16384, -32767, 32767, 0, -32767}
	for i, w := range want {
		assert.Equal(t, w, int16(binary.LittleEndian.Uint16(got[i*2:])), "sample %d", i)
	}
}
