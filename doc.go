// Package rotator renders stereo audio into "8D audio" in pure Go.
//
// The effect moves the source in a circle around the listener: a sinusoidal
// stereo pan sweeps left and right while a complementary gain envelope dips
// the level when the source is "behind". An optional synthetic room reverb
// is mixed in by convolution with exponentially decaying noise.
//
// # Features
//
//   - Per-sample pan and gain automation, continuous across chunk boundaries
//   - Equal-power stereo panning
//   - Convolution reverb with direct (SIMD) and overlap-add FFT paths
//   - Chunked rendering on a bounded worker pool with deterministic output
//   - Cooperative cancellation and monotonic progress reporting
//   - Canonical 16-bit PCM WAV output
//   - Optional SIMD acceleration (AVX2/SSE/NEON) via github.com/tphakala/simd
//
// # Quick Start
//
// For one-shot conversion of a decoded stereo buffer:
//
//	input, err := rotator.NewStereoBuffer(left, right, 44100)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	wav, err := rotator.ConvertToWAV(ctx, input, rotator.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For progress reporting and cancellation, create a [Job]:
//
//	cfg := rotator.DefaultConfig()
//	cfg.OnProgress = func(p rotator.Progress) {
//	    fmt.Printf("\r%3.0f%%", p.Percent)
//	}
//	job, err := rotator.NewJob(input, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go func() {
//	    <-stop
//	    job.Cancel()
//	}()
//	wav, err := job.Run(ctx)
//	switch rotator.Classify(err) {
//	case rotator.OutcomeCancelled:
//	    // no output
//	case rotator.OutcomeFailed:
//	    log.Fatal(err)
//	}
//
// # Parameters
//
//   - SpeedHz: rotations per second (the command line default is 0.1).
//   - Depth: pan width, 0 to 1. The pan at time t is sin(2π·SpeedHz·t)·Depth.
//   - ReverbIntensity: wet/dry mix, 0 to 1. Zero skips the reverb stage.
//
// The gain envelope spans -8 dB (source behind) to 0 dB (source in front)
// and does not depend on Depth.
//
// # Quality
//
// Quality selects the chunk size rather than the DSP: [QualityHigh] renders
// 5 second chunks, [QualityMedium] 10 and [QualityLow] 20. Inputs longer than
// five minutes use at least 30 second chunks. Reverb tails do not carry
// across chunk boundaries, so smaller chunks give a drier sound at the seams.
//
// # Architecture
//
//	Input -> [Chunk Scheduler] -> per chunk: [Envelope] -> [Pan + Gain] -> [Reverb Mix] -> [Reassembly] -> [WAV Encoder]
//
// Each chunk owns a disjoint sample range of the output, so chunks render in
// parallel without locking. Every chunk's impulse response comes from its
// own seeded random stream, which makes the output independent of the
// worker count.
//
// # Thread Safety
//
// [Job.Cancel] may be called from any goroutine. A [Job] should not run
// concurrently with itself.
package rotator
