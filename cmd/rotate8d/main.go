// Command rotate8d converts audio files to "8D audio": the sound circles
// around the listener with a continuously rotating pan, a matching level
// envelope and an optional synthetic room reverb.
//
// Usage:
//
//	rotate8d song.mp3                          # writes song_8d.wav
//	rotate8d -speed 0.2 -reverb 0 in.wav out.wav
//	rotate8d -quality high -seed 42 -play in.ogg
//
// Input may be WAV, MP3 or Ogg Vorbis. Output is always 16-bit PCM WAV at
// the input sample rate. Press Ctrl-C to cancel; no output file is written
// and the exit status is 130.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"golang.org/x/term"

	rotator "github.com/tphakala/go-audio-rotator"
	"github.com/tphakala/go-audio-rotator/internal/decode"
)

func main() {
	err := run()
	switch {
	case err == nil:
	case errors.Is(err, rotator.ErrCancelled):
		log.Print("Conversion cancelled")
		os.Exit(exitCancelled)
	default:
		log.Fatal(err)
	}
}

func run() error {
	// Parse command line flags
	var o options
	flag.Float64Var(&o.speed, "speed", defaultSpeedHz, "Rotation speed in Hz (full turns per second)")
	flag.Float64Var(&o.depth, "depth", defaultDepth, "Rotation depth, 0 (none) to 1 (hard left to hard right)")
	flag.Float64Var(&o.reverb, "reverb", defaultReverb, "Reverb intensity, 0 (dry) to 1 (fully wet)")
	flag.StringVar(&o.quality, "quality", defaultQuality, "Chunk size preset: high (5s), medium (10s), low (20s)")
	flag.IntVar(&o.workers, "workers", 0, "Chunks rendered in parallel (0 = number of CPUs, 1 = sequential)")
	flag.Uint64Var(&o.seed, "seed", 0, "Reverb noise seed for reproducible output (0 = random)")
	flag.BoolVar(&o.normalizeReverb, "normalize-reverb", false, "Normalize the impulse response power like browser convolvers")
	play := flag.Bool("play", false, "Play the result through the default audio device after rendering")
	verbose := flag.Bool("v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file (for PGO)")
	flag.Parse()

	// Validate arguments before setting up profiling
	args := flag.Args()
	if len(args) < minRequiredArgs || len(args) > maxArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.{wav,mp3,ogg} [output.wav]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s song.mp3                       # Writes song_8d.wav\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -speed 0.25 -reverb 0 in.wav   # Faster, dry rotation\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -quality high -play in.ogg     # Small chunks, then preview\n", os.Args[0])
		return fmt.Errorf("invalid arguments")
	}

	config, err := buildConfig(o)
	if err != nil {
		return err
	}

	// Start CPU profiling if requested (for PGO)
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	inputPath := args[0]
	outputPath := defaultOutputPath(inputPath)
	if len(args) == maxArgs {
		outputPath = args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Decode
	start := time.Now()
	input, err := decode.File(inputPath)
	if err != nil {
		return err
	}
	decodeTime := time.Since(start)

	progress := newProgressPrinter(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
	config.OnProgress = progress.update

	job, err := rotator.NewJob(input, config)
	if err != nil {
		return err
	}

	if *verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Output: %s", outputPath)
		log.Printf("Format: %d Hz, %d frames (%.2fs), decoded in %v",
			input.SampleRate, input.Frames(), job.Duration(), decodeTime.Round(time.Millisecond))
		log.Printf("Rotation: %.3f Hz, depth %.2f, reverb %.2f", o.speed, o.depth, o.reverb)
		log.Printf("Quality: %s, %d chunks", config.Quality, job.TotalChunks())
		workers := config.Workers
		if workers == 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		log.Printf("Workers: %d", workers)
		log.Printf("Seed: %d", job.Seed())
	}

	// Render
	renderStart := time.Now()
	output, err := job.Render(ctx)
	if err != nil {
		progress.finish()
		return err
	}
	renderTime := time.Since(renderStart)

	// Save
	if err := writeOutput(outputPath, job, output); err != nil {
		progress.finish()
		return err
	}

	// Print summary
	fmt.Printf("Rotated %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %d Hz stereo, %d chunks (%s quality)\n", output.SampleRate, job.TotalChunks(), config.Quality)
	fmt.Printf("  Duration: %.2fs, Render: %.2fs, Speed: %.1fx realtime\n",
		job.Duration(), renderTime.Seconds(), job.Duration()/renderTime.Seconds())

	if *play {
		fmt.Println("Playing preview (Ctrl-C to stop)...")
		if err := preview(ctx, output); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("preview failed: %w", err)
		}
	}

	return nil
}
