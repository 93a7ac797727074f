package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/lixenwraith/quietear/parameter"
)

// Analyser taps the master output for external visualisation
// It keeps the most recent window of mono samples; reads never block rendering for long
type Analyser struct {
	rate beep.SampleRate
	size int

	mu   sync.Mutex
	ring []float32
	pos  int

	fft      *fourier.FFT
	window   []float64
	frame    []float64
	coeffs   []complex128
	smoothed []float64
}

// NewAnalyser creates an analyser with a window of size samples
func NewAnalyser(rate beep.SampleRate, size int) *Analyser {
	if size <= 0 {
		size = parameter.AnalyserSize
	}
	a := &Analyser{
		rate:     rate,
		size:     size,
		ring:     make([]float32, size),
		fft:      fourier.NewFFT(size),
		window:   make([]float64, size),
		frame:    make([]float64, size),
		smoothed: make([]float64, size/2),
	}
	// Blackman window
	for i := range a.window {
		x := 2 * math.Pi * float64(i) / float64(size)
		a.window[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return a
}

// Size returns the window length in samples
func (a *Analyser) Size() int {
	return a.size
}

// SampleRate returns the rate of the tapped signal
func (a *Analyser) SampleRate() beep.SampleRate {
	return a.rate
}

// write records the channel average of samples
func (a *Analyser) write(samples [][2]float64) {
	a.mu.Lock()
	for i := range samples {
		a.ring[a.pos] = float32((samples[i][0] + samples[i][1]) / 2)
		a.pos++
		if a.pos == a.size {
			a.pos = 0
		}
	}
	a.mu.Unlock()
}

// TimeDomainData copies the newest samples, oldest first, and returns the count
func (a *Analyser) TimeDomainData(dst []float32) int {
	n := min(len(dst), a.size)

	a.mu.Lock()
	defer a.mu.Unlock()

	start := a.pos - n
	if start < 0 {
		start += a.size
	}
	for i := 0; i < n; i++ {
		dst[i] = a.ring[(start+i)%a.size]
	}
	return n
}

// FrequencyData writes smoothed bin magnitudes in dB for size/2 bins and returns the count
// Bin k is centred at k * rate / size Hz
func (a *Analyser) FrequencyData(dst []float64) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < a.size; i++ {
		a.frame[i] = float64(a.ring[(a.pos+i)%a.size]) * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	bins := a.size / 2
	n := min(len(dst), bins)
	for k := 0; k < bins; k++ {
		mag := cmplx.Abs(a.coeffs[k]) / float64(a.size)
		a.smoothed[k] = parameter.AnalyserSmoothing*a.smoothed[k] + (1-parameter.AnalyserSmoothing)*mag
		if k < n {
			db := parameter.AnalyserMinDB
			if a.smoothed[k] > 0 {
				db = math.Max(20*math.Log10(a.smoothed[k]), parameter.AnalyserMinDB)
			}
			dst[k] = db
		}
	}
	return n
}

// BinFrequency returns the center frequency of bin k in Hz
func (a *Analyser) BinFrequency(k int) float64 {
	return float64(k) * float64(a.rate) / float64(a.size)
}
