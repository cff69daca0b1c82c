//go:build !headless

package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"

	rotator "github.com/tphakala/go-audio-rotator"
)

// preview plays buf through the default audio device and blocks until
// playback ends or ctx is cancelled.
func preview(ctx context.Context, buf *rotator.Buffer) error {
	if buf.NumChannels() != previewChannels {
		return fmt.Errorf("preview needs %d channels, got %d", previewChannels, buf.NumChannels())
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   buf.SampleRate,
		ChannelCount: previewChannels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	player := otoCtx.NewPlayer(bytes.NewReader(interleavePCM16(buf)))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(previewPollInterval * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}
