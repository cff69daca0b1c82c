// Package pcm holds the planar sample buffer shared by every rendering stage.
package pcm

import (
	"errors"
	"fmt"
)

// StereoChannels is the channel count of the rotation effect chain.
const StereoChannels = 2

// ErrInvalidBuffer indicates a malformed buffer (ragged channels, bad rate).
var ErrInvalidBuffer = errors.New("invalid pcm buffer")

// Buffer stores audio as one float64 slice per channel, nominally in [-1, 1].
// A buffer is allocated once and never resized.
type Buffer struct {
	Channels   [][]float64
	SampleRate int
}

// New allocates a zeroed buffer.
func New(channels, frames, sampleRate int) (*Buffer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: channels must be at least 1", ErrInvalidBuffer)
	}
	if frames < 0 {
		return nil, fmt.Errorf("%w: negative frame count %d", ErrInvalidBuffer, frames)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive", ErrInvalidBuffer)
	}

	b := &Buffer{
		Channels:   make([][]float64, channels),
		SampleRate: sampleRate,
	}
	for ch := range channels {
		b.Channels[ch] = make([]float64, frames)
	}
	return b, nil
}

// FromChannels wraps existing channel slices without copying.
func FromChannels(sampleRate int, channels ...[]float64) (*Buffer, error) {
	b := &Buffer{Channels: channels, SampleRate: sampleRate}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks that the buffer has a positive rate and equal-length channels.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidBuffer)
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidBuffer)
	}
	frames := len(b.Channels[0])
	for ch, data := range b.Channels {
		if len(data) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, channel 0 has %d",
				ErrInvalidBuffer, ch, len(data), frames)
		}
	}
	return nil
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int { return len(b.Channels) }

// Frames returns the number of sample frames per channel.
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Channel returns the samples of channel ch.
func (b *Buffer) Channel(ch int) []float64 { return b.Channels[ch] }

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Slice copies frames [start, start+n) into a new buffer.
// Frames beyond the end of b are left at zero.
func (b *Buffer) Slice(start, n int) *Buffer {
	out := &Buffer{
		Channels:   make([][]float64, len(b.Channels)),
		SampleRate: b.SampleRate,
	}
	for ch, src := range b.Channels {
		dst := make([]float64, n)
		if start < len(src) {
			copy(dst, src[start:])
		}
		out.Channels[ch] = dst
	}
	return out
}

// WriteAt copies the frames of src into b starting at frame offset.
// Frames that would land past the end of b are dropped. It returns the
// number of frames written per channel.
func (b *Buffer) WriteAt(offset int, src *Buffer) (int, error) {
	if src.NumChannels() != b.NumChannels() {
		return 0, fmt.Errorf("%w: channel mismatch (%d into %d)",
			ErrInvalidBuffer, src.NumChannels(), b.NumChannels())
	}
	if offset < 0 || offset > b.Frames() {
		return 0, fmt.Errorf("%w: offset %d outside [0, %d]", ErrInvalidBuffer, offset, b.Frames())
	}

	n := 0
	for ch, data := range src.Channels {
		n = copy(b.Channels[ch][offset:], data)
	}
	return n, nil
}
