package decode

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-rotator/internal/pcm"
	"github.com/tphakala/go-audio-rotator/internal/testutil"
	"github.com/tphakala/go-audio-rotator/internal/wavenc"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"song.mp3", FormatMP3, false},
		{"/a/b/SONG.MP3", FormatMP3, false},
		{"take.wav", FormatWAV, false},
		{"take.WAVE", FormatWAV, false},
		{"loop.ogg", FormatVorbis, false},
		{"notes.txt", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_WAVRoundTrip(t *testing.T) {
	const frames = 2048
	left := testutil.Sine(frames, 440, 44100, 0.6)
	right := testutil.Noise(frames, 7, 0.5)
	src, err := pcm.FromChannels(44100, left, right)
	require.NoError(t, err)

	data, err := wavenc.Encode(src)
	require.NoError(t, err)

	buf, err := Decode(bytes.NewReader(data), FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, 44100, buf.SampleRate)
	testutil.AssertSlicesInDelta(t, left, buf.Channel(0), testutil.PCMTolerance)
	testutil.AssertSlicesInDelta(t, right, buf.Channel(1), testutil.PCMTolerance)
}

func TestDecode_MonoWAVIsDuplicated(t *testing.T) {
	mono, err := pcm.FromChannels(16000, testutil.Sine(500, 100, 16000, 0.5))
	require.NoError(t, err)
	data, err := wavenc.Encode(mono)
	require.NoError(t, err)

	buf, err := Decode(bytes.NewReader(data), FormatWAV)
	require.NoError(t, err)
	require.Equal(t, 2, buf.NumChannels())
	assert.Equal(t, buf.Channel(0), buf.Channel(1))

	// The duplicate must be an independent slice.
	buf.Channel(1)[0] = 5
	assert.NotEqual(t, buf.Channel(0)[0], buf.Channel(1)[0])
}

func TestDecode_24BitWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in24.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 48000, 24, 2, 1)
	samples := []int{8388607, -8388607, 0, 4194304, -4194304, 1}
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           samples,
		Format:         &audio.Format{NumChannels: 2, SampleRate: 48000},
		SourceBitDepth: 24,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	buf, err := File(path)
	require.NoError(t, err)
	require.Equal(t, 3, buf.Frames())
	assert.InDelta(t, 1.0, buf.Channel(0)[0], 1e-9)
	assert.InDelta(t, -1.0, buf.Channel(1)[0], 1e-9)
	assert.InDelta(t, 0.5, buf.Channel(1)[1], 1e-6)
	assert.InDelta(t, -0.5, buf.Channel(0)[2], 1e-6)
}

func TestDecode_InvalidInputs(t *testing.T) {
	garbage := bytes.Repeat([]byte("not audio "), 64)

	for _, format := range []Format{FormatWAV, FormatMP3, FormatVorbis} {
		t.Run(string(format), func(t *testing.T) {
			_, err := Decode(bytes.NewReader(garbage), format)
			require.Error(t, err)
		})
	}

	_, err := Decode(bytes.NewReader(garbage), Format("flac"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecode_EmptyWAV(t *testing.T) {
	empty, err := pcm.New(2, 0, 44100)
	require.NoError(t, err)
	data, err := wavenc.Encode(empty)
	require.NoError(t, err)

	_, err = Decode(bytes.NewReader(data), FormatWAV)
	require.Error(t, err)
}

func TestFile_NotFound(t *testing.T) {
	_, err := File("/nonexistent/file.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input file")
}

func TestToStereo_DropsExtraChannels(t *testing.T) {
	buf, err := pcm.FromChannels(8000, []float64{1}, []float64{2}, []float64{3})
	require.NoError(t, err)

	out := toStereo(buf)
	require.Equal(t, 2, out.NumChannels())
	assert.Equal(t, []float64{1}, out.Channel(0))
	assert.Equal(t, []float64{2}, out.Channel(1))
}
