package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	rotator "github.com/tphakala/go-audio-rotator"
	"github.com/tphakala/go-audio-rotator/internal/wavenc"
)

// options holds the parsed command line.
type options struct {
	speed           float64
	depth           float64
	reverb          float64
	quality         string
	workers         int
	seed            uint64
	normalizeReverb bool
}

// buildConfig validates options and maps them to a conversion config.
func buildConfig(o options) (rotator.Config, error) {
	quality, err := rotator.ParseQuality(o.quality)
	if err != nil {
		return rotator.Config{}, err
	}

	cfg := rotator.Config{
		Params: rotator.Params{
			SpeedHz:         o.speed,
			Depth:           o.depth,
			ReverbIntensity: o.reverb,
		},
		Quality:         quality,
		Workers:         o.workers,
		Seed:            o.seed,
		NormalizeReverb: o.normalizeReverb,
	}
	if err := cfg.Validate(); err != nil {
		return rotator.Config{}, err
	}
	return cfg, nil
}

// defaultOutputPath derives "<name>_8d.wav" next to the input file.
func defaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + outputSuffix + outputExt
}

// progressPrinter renders progress events to a writer. On a terminal the
// line is redrawn in place; otherwise a log line is printed every
// progressInterval percent.
type progressPrinter struct {
	w        io.Writer
	terminal bool

	mu     sync.Mutex
	logged int // last percent step logged in line mode
}

func newProgressPrinter(w io.Writer, terminal bool) *progressPrinter {
	return &progressPrinter{w: w, terminal: terminal, logged: -1}
}

func (p *progressPrinter) update(ev rotator.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.terminal {
		_, _ = fmt.Fprintf(p.w, "\r%s", formatProgress(ev))
		if ev.Stage == rotator.StageDone {
			_, _ = fmt.Fprintln(p.w)
		}
		return
	}

	step := int(ev.Percent) / progressInterval
	if step <= p.logged {
		return
	}
	p.logged = step
	log.Printf("Progress: %s", formatProgress(ev))
}

// finish terminates an in-place progress line after an early exit.
func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminal {
		_, _ = fmt.Fprintln(p.w)
	}
}

// formatProgress renders an event as "[####      ]  45% render 3/8".
func formatProgress(ev rotator.Progress) string {
	pct := min(max(ev.Percent, 0), percentScale)
	filled := int(pct / percentScale * progressBarWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat(" ", progressBarWidth-filled)

	detail := ev.Stage.String()
	if ev.TotalChunks > 0 && (ev.Stage == rotator.StageRender || ev.Stage == rotator.StageSetup) {
		detail = fmt.Sprintf("%s %d/%d", detail, ev.Completed, ev.TotalChunks)
	}
	return fmt.Sprintf("[%s] %3.0f%% %s", bar, pct, detail)
}

// writeOutput encodes buf into path. The file is written under a temporary
// name in the same directory and renamed into place, so an interrupted write
// never leaves a truncated WAV behind.
func writeOutput(path string, job *rotator.Job, buf *rotator.Buffer) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := job.Encode(tmp, buf); err != nil {
		return err
	}
	if err := tmp.Chmod(outputFileMode); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// interleavePCM16 converts a stereo buffer to interleaved signed 16-bit
// little-endian bytes using the same quantizer as the WAV encoder.
func interleavePCM16(buf *rotator.Buffer) []byte {
	frames := buf.Frames()
	channels := buf.NumChannels()
	out := make([]byte, frames*channels*bytesPerSample16)

	for i := range frames {
		for ch := range channels {
			off := (i*channels + ch) * bytesPerSample16
			binary.LittleEndian.PutUint16(out[off:], uint16(wavenc.Quantize(buf.Channels[ch][i])))
		}
	}
	return out
}
