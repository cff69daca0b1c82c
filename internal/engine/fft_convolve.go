package engine

import (
	"github.com/tphakala/simd/c128"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Convolver computes causal linear convolution against a fixed kernel,
// truncated to the signal length: dst[n] = Σ signal[n-k]·kernel[k] for
// n < len(signal). The tail past the end of the signal is dropped.
//
// Implementations keep scratch buffers and are not safe for concurrent use.
type Convolver interface {
	Convolve(dst, signal []float64)
	KernelLen() int
}

// NewConvolver picks direct convolution for short kernels and overlap-add
// FFT convolution for long ones. It returns nil for an empty kernel.
func NewConvolver(kernel []float64) Convolver {
	if len(kernel) == 0 {
		return nil
	}
	if len(kernel) < minKernelForFFT {
		return NewDirectConvolver(kernel)
	}
	return NewFFTConvolver(kernel)
}

// FFTConvolver performs overlap-add FFT convolution for long kernels.
// This is O(N log N) vs O(N×M) for direct convolution.
//
// Overlap-add method:
//  1. Split the signal into blocks of blockSize = fftSize - kernelLen + 1 samples
//  2. Zero-pad each block to fftSize, multiply by the kernel spectrum
//  3. Each inverse transform holds blockSize+kernelLen-1 <= fftSize samples of
//     linear convolution, so nothing wraps; add it into the output at the
//     block offset
type FFTConvolver struct {
	fft       *fourier.FFT
	fftSize   int
	blockSize int

	// Precomputed kernel in frequency domain
	kernelFFT []complex128
	kernelLen int
	scale     float64 // 1/fftSize for IFFT normalization (gonum doesn't normalize)

	// Working buffers (pre-allocated for zero allocation during processing)
	block      []float64
	blockFFT   []complex128
	productFFT []complex128
	ifftResult []float64
}

// NewFFTConvolver creates a new FFT convolver for the given kernel.
// The kernel is transformed once and reused for every block.
func NewFFTConvolver(kernel []float64) *FFTConvolver {
	kernelLen := len(kernel)
	if kernelLen == 0 {
		return nil
	}

	fftSize := defaultFFTBlockSize
	for fftSize < fftKernelMultiplier*kernelLen {
		fftSize *= 2
	}

	fft := fourier.NewFFT(fftSize)

	kernelPadded := make([]float64, fftSize)
	copy(kernelPadded, kernel)
	kernelFFT := fft.Coefficients(nil, kernelPadded)

	fftLen := fftSize/fftHermitianDivisor + 1

	return &FFTConvolver{
		fft:        fft,
		fftSize:    fftSize,
		blockSize:  fftSize - kernelLen + 1,
		kernelFFT:  kernelFFT,
		kernelLen:  kernelLen,
		scale:      1.0 / float64(fftSize),
		block:      make([]float64, fftSize),
		blockFFT:   make([]complex128, fftLen),
		productFFT: make([]complex128, fftLen),
		ifftResult: make([]float64, fftSize),
	}
}

// KernelLen returns the kernel length in samples.
func (c *FFTConvolver) KernelLen() int { return c.kernelLen }

// Convolve writes the first len(signal) samples of the linear convolution
// into dst. dst must have length >= len(signal) and must not alias signal.
func (c *FFTConvolver) Convolve(dst, signal []float64) {
	n := len(signal)
	if n == 0 || len(dst) < n {
		return
	}
	clear(dst[:n])

	for start := 0; start < n; start += c.blockSize {
		end := min(start+c.blockSize, n)

		clear(c.block)
		copy(c.block, signal[start:end])

		c.blockFFT = c.fft.Coefficients(c.blockFFT, c.block)
		c128.Mul(c.productFFT, c.blockFFT, c.kernelFFT)
		c.ifftResult = c.fft.Sequence(c.ifftResult, c.productFFT)
		f64.Scale(c.ifftResult, c.ifftResult, c.scale)

		// Overlap-add, dropping whatever lands past the signal end
		out := dst[start:n]
		valid := min(c.fftSize, len(out))
		for i, v := range c.ifftResult[:valid] {
			out[i] += v
		}
	}
}

// DirectConvolver computes the convolution in the time domain with SIMD
// valid-mode convolution over a zero-padded signal and a reversed kernel.
type DirectConvolver struct {
	reversed []float64
	padded   []float64
}

// NewDirectConvolver creates a time-domain convolver.
func NewDirectConvolver(kernel []float64) *DirectConvolver {
	// f64.ConvolveValid computes y[n] = Σ x[n+k]·h[k]; reversing h and
	// padding x with len(h)-1 leading zeros turns that into causal
	// convolution y[n] = Σ x[n-k]·h[k].
	reversed := make([]float64, len(kernel))
	for i, v := range kernel {
		reversed[len(kernel)-1-i] = v
	}
	return &DirectConvolver{reversed: reversed}
}

// KernelLen returns the kernel length in samples.
func (c *DirectConvolver) KernelLen() int { return len(c.reversed) }

// Convolve writes the first len(signal) samples of the linear convolution
// into dst. dst must have length >= len(signal).
func (c *DirectConvolver) Convolve(dst, signal []float64) {
	n := len(signal)
	if n == 0 || len(dst) < n || len(c.reversed) == 0 {
		return
	}

	overlap := len(c.reversed) - 1
	need := n + overlap
	if cap(c.padded) < need {
		c.padded = make([]float64, need)
	}
	c.padded = c.padded[:need]
	clear(c.padded[:overlap])
	copy(c.padded[overlap:], signal)

	f64.ConvolveValid(dst[:n], c.padded, c.reversed)
}
