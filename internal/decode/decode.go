// Package decode turns compressed or containerized audio into stereo PCM
// buffers for the renderer. Supported inputs: WAV (16/24/32-bit integer
// PCM), MP3 and Ogg Vorbis.
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/tphakala/go-audio-rotator/internal/pcm"
)

// Format identifies an input container.
type Format string

// Supported input formats.
const (
	FormatWAV    Format = "wav"
	FormatMP3    Format = "mp3"
	FormatVorbis Format = "ogg"
)

// Sample format constants
const (
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	mp3BytesPerSample = 2
	mp3Channels       = 2
)

var (
	// ErrUnsupportedFormat indicates an unknown file extension or codec variant.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrEmptyAudio indicates a stream that decoded to zero frames.
	ErrEmptyAudio = errors.New("audio stream is empty")
)

// FormatFromPath guesses the container from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	case ".ogg", ".oga":
		return FormatVorbis, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// File decodes the audio file at path into a stereo buffer.
func File(path string) (*pcm.Buffer, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f, format)
}

// Decode reads a whole stream of the given format into a stereo buffer.
// Mono input is duplicated to both channels; only the first two channels
// of multichannel input are kept.
func Decode(r io.ReadSeeker, format Format) (*pcm.Buffer, error) {
	var (
		buf *pcm.Buffer
		err error
	)
	switch format {
	case FormatWAV:
		buf, err = decodeWAV(r)
	case FormatMP3:
		buf, err = decodeMP3(r)
	case FormatVorbis:
		buf, err = decodeVorbis(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if buf.Frames() == 0 {
		return nil, ErrEmptyAudio
	}
	return toStereo(buf), nil
}

func decodeWAV(r io.ReadSeeker) (*pcm.Buffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrUnsupportedFormat)
	}

	intBuf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	maxVal, err := maxValue(int(decoder.BitDepth))
	if err != nil {
		return nil, err
	}
	return fromIntBuffer(intBuf, maxVal)
}

// fromIntBuffer deinterleaves and normalizes go-audio integer samples.
func fromIntBuffer(intBuf *audio.IntBuffer, maxVal float64) (*pcm.Buffer, error) {
	if intBuf == nil || intBuf.Format == nil || intBuf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: missing channel layout", ErrUnsupportedFormat)
	}

	channels := intBuf.Format.NumChannels
	frames := len(intBuf.Data) / channels
	buf, err := pcm.New(channels, frames, intBuf.Format.SampleRate)
	if err != nil {
		return nil, err
	}

	invMaxVal := 1.0 / maxVal
	for i := range frames {
		base := i * channels
		for ch := range channels {
			buf.Channels[ch][i] = float64(intBuf.Data[base+ch]) * invMaxVal
		}
	}
	return buf, nil
}

func maxValue(bitDepth int) (float64, error) {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16, nil
	case bitsPerSample24:
		return maxInt24, nil
	case bitsPerSample32:
		return maxInt32, nil
	default:
		return 0, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, bitDepth)
	}
}

func decodeMP3(r io.Reader) (*pcm.Buffer, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %w", ErrUnsupportedFormat, err)
	}

	// go-mp3 always produces interleaved stereo 16-bit little-endian PCM.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}

	frameBytes := mp3Channels * mp3BytesPerSample
	frames := len(raw) / frameBytes
	buf, err := pcm.New(mp3Channels, frames, dec.SampleRate())
	if err != nil {
		return nil, err
	}

	for i := range frames {
		base := i * frameBytes
		buf.Channels[0][i] = float64(int16(binary.LittleEndian.Uint16(raw[base:]))) / maxInt16
		buf.Channels[1][i] = float64(int16(binary.LittleEndian.Uint16(raw[base+mp3BytesPerSample:]))) / maxInt16
	}
	return buf, nil
}

func decodeVorbis(r io.Reader) (*pcm.Buffer, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: ogg vorbis: %w", ErrUnsupportedFormat, err)
	}
	if format.Channels < 1 {
		return nil, fmt.Errorf("%w: ogg vorbis stream without channels", ErrUnsupportedFormat)
	}

	channels := format.Channels
	frames := len(data) / channels
	buf, err := pcm.New(channels, frames, format.SampleRate)
	if err != nil {
		return nil, err
	}

	for i := range frames {
		base := i * channels
		for ch := range channels {
			buf.Channels[ch][i] = float64(data[base+ch])
		}
	}
	return buf, nil
}

// toStereo maps any channel layout onto two channels.
func toStereo(buf *pcm.Buffer) *pcm.Buffer {
	switch buf.NumChannels() {
	case pcm.StereoChannels:
		return buf
	case 1:
		right := make([]float64, buf.Frames())
		copy(right, buf.Channels[0])
		return &pcm.Buffer{
			Channels:   [][]float64{buf.Channels[0], right},
			SampleRate: buf.SampleRate,
		}
	default:
		return &pcm.Buffer{
			Channels:   buf.Channels[:pcm.StereoChannels],
			SampleRate: buf.SampleRate,
		}
	}
}
