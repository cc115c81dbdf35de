// SPDX-License-Identifier: EPL-2.0

// Package analyser turns a stream of mono samples into byte frequency
// frames the way a browser AnalyserNode does: the latest FFTSize samples
// are Blackman windowed, transformed, smoothed over time and mapped from a
// decibel range onto 0..255.
package analyser

import (
	"errors"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/ik5/audiovis/utils"
)

var (
	ErrInvalidFFTSize = errors.New("fft size must be a power of two between 32 and 32768")
	ErrInvalidOptions = errors.New("smoothing must be in [0,1] and min decibels below max decibels")
)

const (
	DefaultFFTSize     = 2048
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0

	minFFTSize = 32
	maxFFTSize = 32768
)

// Options configures an Analyser. Zero fields take the defaults above.
// A negative Smoothing disables smoothing.
type Options struct {
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

func (o Options) withDefaults() Options {
	if o.FFTSize == 0 {
		o.FFTSize = DefaultFFTSize
	}
	if o.Smoothing == 0 {
		o.Smoothing = DefaultSmoothing
	}
	if o.Smoothing < 0 {
		o.Smoothing = 0
	}
	if o.MinDecibels == 0 && o.MaxDecibels == 0 {
		o.MinDecibels = DefaultMinDecibels
		o.MaxDecibels = DefaultMaxDecibels
	}
	return o
}

// Analyser is safe for one writer (the audio path) and one reader (the
// tick loop) running concurrently.
type Analyser struct {
	opts Options

	mtx    sync.Mutex
	ring   []float64
	head   int
	window []float64
	fft    *fourier.FFT

	// scratch and state, touched only under mtx
	input    []float64
	coeffs   []complex128
	smoothed []float64
	frame    []uint8
}

func New(opts Options) (*Analyser, error) {
	opts = opts.withDefaults()

	n := opts.FFTSize
	if n < minFFTSize || n > maxFFTSize || n&(n-1) != 0 {
		return nil, ErrInvalidFFTSize
	}
	if opts.Smoothing > 1 || opts.MinDecibels >= opts.MaxDecibels {
		return nil, ErrInvalidOptions
	}

	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1
	}

	return &Analyser{
		opts:     opts,
		ring:     make([]float64, n),
		window:   window.Blackman(coeffs),
		fft:      fourier.NewFFT(n),
		input:    make([]float64, n),
		coeffs:   make([]complex128, n/2+1),
		smoothed: make([]float64, n/2),
		frame:    make([]uint8, n/2),
	}, nil
}

func (a *Analyser) FFTSize() int  { return a.opts.FFTSize }
func (a *Analyser) BinCount() int { return a.opts.FFTSize / 2 }

// Write appends mono samples to the time-domain ring. Only the most recent
// FFTSize samples are kept.
func (a *Analyser) Write(mono []float32) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	n := len(a.ring)
	if len(mono) > n {
		mono = mono[len(mono)-n:]
	}
	for _, s := range mono {
		a.ring[a.head] = float64(s)
		a.head = (a.head + 1) % n
	}
}

// ByteFrequencyData computes a new frame into dst and returns the number
// of bins written. Bins beyond len(dst) are computed but dropped.
func (a *Analyser) ByteFrequencyData(dst []uint8) int {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	a.compute()
	return copy(dst, a.frame)
}

// Reset clears the sample ring and the smoothing state.
func (a *Analyser) Reset() {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	clear(a.ring)
	clear(a.smoothed)
	clear(a.frame)
	a.head = 0
}

func (a *Analyser) compute() {
	n := len(a.ring)
	for i := range n {
		a.input[i] = a.ring[(a.head+i)%n] * a.window[i]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.input)

	tau := a.opts.Smoothing
	scale := 1 / float64(n)
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) * scale
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag

		db := math.Inf(-1)
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		a.frame[k] = utils.DecibelsToByte(db, a.opts.MinDecibels, a.opts.MaxDecibels)
	}
}
