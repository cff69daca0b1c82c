//go:build headless

package main

import (
	"context"
	"errors"

	rotator "github.com/tphakala/go-audio-rotator"
)

var errPreviewUnavailable = errors.New("preview playback is not available in headless builds")

func preview(_ context.Context, _ *rotator.Buffer) error {
	return errPreviewUnavailable
}
