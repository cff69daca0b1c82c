package rotator

// Channel constants
const (
	stereoChannels = 2 // The effect chain is stereo-only
)

// Default rotation parameters
const (
	defaultSpeedHz         = 0.1 // One full turn every 10 seconds
	defaultDepth           = 1.0 // Full left/right sweep
	defaultReverbIntensity = 0.3 // Light room
)

// Progress bands, in percent. Rendering maps onto
// [progressRenderStart, progressRenderEnd]; encoding completes at
// progressDone.
const (
	progressRenderStart = 30.0
	progressRenderEnd   = 90.0
	progressDone        = 100.0
)

// rotateStereoSeed is the fixed reverb seed of RotateStereo.
const rotateStereoSeed = 0x8D
