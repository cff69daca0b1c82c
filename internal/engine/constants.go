package engine

// Convolution strategy constants
const (
	// Minimum kernel length to use FFT convolution (below this, direct is faster).
	// The reverb kernel is two seconds long, so rendering always takes the
	// FFT path; the direct path serves short kernels and cross-checks.
	minKernelForFFT = 400

	// Default FFT block size (power of 2 for efficiency)
	defaultFFTBlockSize = 512

	// fftHermitianDivisor is used to calculate unique frequency bins in real FFT.
	// Due to Hermitian symmetry, a real FFT of size N has N/2 + 1 unique complex coefficients.
	fftHermitianDivisor = 2

	// fftKernelMultiplier sizes the FFT relative to the kernel so each block
	// yields at least kernelLen new output samples.
	fftKernelMultiplier = 2
)

// Stereo panning constants
const (
	stereoChannels = 2
	quarterTurn    = 1.5707963267948966 // π/2
)
