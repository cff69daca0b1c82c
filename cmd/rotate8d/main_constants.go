package main

// Default command-line flag values
const (
	defaultSpeedHz = 0.1 // One rotation every 10 seconds
	defaultDepth   = 1.0 // Full sweep
	defaultReverb  = 0.3 // Light room
	defaultQuality = "medium"
)

// CLI conventions
const (
	minRequiredArgs = 1
	maxArgs         = 2
	outputSuffix    = "_8d"
	outputExt       = ".wav"
	exitCancelled   = 130 // 128 + SIGINT, as shells report an interrupted job
)

// Progress display
const (
	progressInterval = 10 // Print progress every N% when stderr is not a terminal
	progressBarWidth = 30
	percentScale     = 100
)

// Preview playback
const (
	previewPollInterval = 100 // milliseconds between playback state checks
	previewChannels     = 2
	bytesPerSample16    = 2
)

// File permissions for the rendered output
const (
	outputFileMode = 0o644
)
