// Package wavenc serializes PCM buffers into canonical 44-byte-header,
// 16-bit little-endian RIFF/WAVE files.
package wavenc

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tphakala/simd/f64"

	"github.com/tphakala/go-audio-rotator/internal/pcm"
)

// WAV format constants
const (
	HeaderSize = 44 // Total WAV header size in bytes

	riffHeaderSize   = 36 // RIFF size = riffHeaderSize + data size
	pcmSubchunkSize  = 16 // fmt subchunk size for PCM format
	formatPCM        = 1  // WAVE_FORMAT_PCM
	bitsPerSample    = 16
	bytesPerSample   = 2
	stereoChannels   = 2
	maxInt16         = 0x7FFF
	maxChannels      = math.MaxUint16
	writerBufferSize = 256 * 1024
	encodeBlockSize  = 8192 // frames per conversion block
)

var (
	// ErrTooLarge indicates a data section that does not fit the 32-bit RIFF size fields.
	ErrTooLarge = errors.New("wav: audio too large for RIFF container")

	// ErrInvalidHeader indicates bytes that are not a canonical PCM WAV header.
	ErrInvalidHeader = errors.New("wav: invalid header")
)

// Header describes the fixed fields of a canonical PCM WAV file.
type Header struct {
	RIFFSize      uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// NewHeader computes the header for frames of 16-bit audio.
func NewHeader(channels, sampleRate, frames int) (Header, error) {
	if channels < 1 || channels > maxChannels {
		return Header{}, fmt.Errorf("wav: unsupported channel count %d", channels)
	}
	if sampleRate <= 0 || uint64(sampleRate) > math.MaxUint32 {
		return Header{}, fmt.Errorf("wav: unsupported sample rate %d", sampleRate)
	}

	dataSize := uint64(frames) * uint64(channels) * bytesPerSample
	if dataSize+riffHeaderSize > math.MaxUint32 {
		return Header{}, fmt.Errorf("%w: %d data bytes", ErrTooLarge, dataSize)
	}
	byteRate := uint64(sampleRate) * uint64(channels) * bytesPerSample
	if byteRate > math.MaxUint32 {
		return Header{}, fmt.Errorf("%w: byte rate %d", ErrTooLarge, byteRate)
	}

	return Header{
		RIFFSize:      uint32(riffHeaderSize + dataSize),
		AudioFormat:   formatPCM,
		Channels:      uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(byteRate),
		BlockAlign:    uint16(channels * bytesPerSample),
		BitsPerSample: bitsPerSample,
		DataSize:      uint32(dataSize),
	}, nil
}

// FileSize returns the total encoded size in bytes.
func (h Header) FileSize() int { return HeaderSize + int(h.DataSize) }

// Frames returns the number of sample frames in the data section.
func (h Header) Frames() int {
	if h.BlockAlign == 0 {
		return 0
	}
	return int(h.DataSize) / int(h.BlockAlign)
}

// MarshalBinary encodes the 44-byte header.
func (h Header) MarshalBinary() ([]byte, error) {
	header := make([]byte, HeaderSize)

	// RIFF header
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], h.RIFFSize)
	copy(header[8:12], "WAVE")

	// fmt subchunk
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], pcmSubchunkSize)
	binary.LittleEndian.PutUint16(header[20:22], h.AudioFormat)
	binary.LittleEndian.PutUint16(header[22:24], h.Channels)
	binary.LittleEndian.PutUint32(header[24:28], h.SampleRate)
	binary.LittleEndian.PutUint32(header[28:32], h.ByteRate)
	binary.LittleEndian.PutUint16(header[32:34], h.BlockAlign)
	binary.LittleEndian.PutUint16(header[34:36], h.BitsPerSample)

	// data subchunk
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], h.DataSize)

	return header, nil
}

// ParseHeader decodes a canonical 44-byte PCM header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(b))
	}
	if !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return Header{}, fmt.Errorf("%w: missing RIFF/WAVE tags", ErrInvalidHeader)
	}
	if !bytes.Equal(b[12:16], []byte("fmt ")) || binary.LittleEndian.Uint32(b[16:20]) != pcmSubchunkSize {
		return Header{}, fmt.Errorf("%w: non-canonical fmt chunk", ErrInvalidHeader)
	}
	if !bytes.Equal(b[36:40], []byte("data")) {
		return Header{}, fmt.Errorf("%w: data chunk not at offset 36", ErrInvalidHeader)
	}

	return Header{
		RIFFSize:      binary.LittleEndian.Uint32(b[4:8]),
		AudioFormat:   binary.LittleEndian.Uint16(b[20:22]),
		Channels:      binary.LittleEndian.Uint16(b[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(b[24:28]),
		ByteRate:      binary.LittleEndian.Uint32(b[28:32]),
		BlockAlign:    binary.LittleEndian.Uint16(b[32:34]),
		BitsPerSample: binary.LittleEndian.Uint16(b[34:36]),
		DataSize:      binary.LittleEndian.Uint32(b[40:44]),
	}, nil
}

// Quantize converts a float sample to 16-bit PCM: round(clamp(s, -1, 1)·32767).
// Both signs use the same scale, so -1.0 maps to -32767. NaN maps to 0.
func Quantize(s float64) int16 {
	switch {
	case math.IsNaN(s):
		return 0
	case s > 1:
		s = 1
	case s < -1:
		s = -1
	}
	return int16(math.Round(s * maxInt16))
}

// Encode serializes buf into a byte slice.
func Encode(buf *pcm.Buffer) ([]byte, error) {
	h, err := headerFor(buf)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(h.FileSize())
	if err := encode(&out, buf, h); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// EncodeTo streams the encoded file to w.
func EncodeTo(w io.Writer, buf *pcm.Buffer) error {
	h, err := headerFor(buf)
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(w, writerBufferSize)
	if err := encode(bw, buf, h); err != nil {
		return err
	}
	return bw.Flush()
}

func headerFor(buf *pcm.Buffer) (Header, error) {
	if err := buf.Validate(); err != nil {
		return Header{}, err
	}
	return NewHeader(buf.NumChannels(), buf.SampleRate, buf.Frames())
}

func encode(w io.Writer, buf *pcm.Buffer, h Header) error {
	header, err := h.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}

	numChannels := buf.NumChannels()
	frames := buf.Frames()
	interleaved := make([]float64, min(frames, encodeBlockSize)*numChannels)
	byteBuf := make([]byte, len(interleaved)*bytesPerSample)

	for start := 0; start < frames; start += encodeBlockSize {
		end := min(start+encodeBlockSize, frames)
		n := (end - start) * numChannels

		interleave(interleaved[:n], buf.Channels, start, end)

		out := byteBuf[:n*bytesPerSample]
		for i, s := range interleaved[:n] {
			binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(Quantize(s)))
		}
		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("wav: write samples: %w", err)
		}
	}
	return nil
}

// interleave packs frames [start, end) of channels into dst.
func interleave(dst []float64, channels [][]float64, start, end int) {
	// Fast path for stereo
	if len(channels) == stereoChannels {
		f64.Interleave2(dst, channels[0][start:end], channels[1][start:end])
		return
	}

	numChannels := len(channels)
	for i := start; i < end; i++ {
		base := (i - start) * numChannels
		for ch, data := range channels {
			dst[base+ch] = data[i]
		}
	}
}
