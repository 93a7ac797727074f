package audio

import (
	"math"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/quietear/parameter"
)

// FilterType selects the biquad response
type FilterType int

const (
	FilterBandpass FilterType = iota
	FilterNotch
)

const (
	minQ = 0.0001
	maxQ = 1000.0
)

// biquad is a second-order IIR filter with automated center frequency and Q
// Coefficients follow the RBJ cookbook and are refreshed once per render block
type biquad struct {
	ctx     *Context
	kind    FilterType
	in      beep.Streamer
	freq    *Param
	q       *Param
	stopped bool

	b0, b1, b2, a1, a2 float64
	lastF, lastQ       float64

	// Direct form I history per channel
	x1, x2, y1, y2 [2]float64

	freqBuf, qBuf []float64
}

func newBiquad(ctx *Context, kind FilterType, in beep.Streamer, hz, q float64) *biquad {
	f := &biquad{
		ctx:  ctx,
		kind: kind,
		in:   in,
		freq: NewParam(hz, parameter.MinFreq, parameter.MaxFreq),
		q:    NewParam(q, minQ, maxQ),
	}
	f.updateCoefficients(f.freq.FinalValue(), f.q.FinalValue())
	return f
}

func (f *biquad) updateCoefficients(hz, q float64) {
	if hz == f.lastF && q == f.lastQ {
		return
	}
	f.lastF, f.lastQ = hz, q

	nyquist := float64(f.ctx.rate) / 2
	if hz >= nyquist {
		hz = nyquist * 0.999
	}
	w0 := 2 * math.Pi * hz / float64(f.ctx.rate)
	cosW := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha

	switch f.kind {
	case FilterNotch:
		f.b0 = 1 / a0
		f.b1 = -2 * cosW / a0
		f.b2 = 1 / a0
	default:
		// Constant 0 dB peak gain bandpass
		f.b0 = alpha / a0
		f.b1 = 0
		f.b2 = -alpha / a0
	}
	f.a1 = -2 * cosW / a0
	f.a2 = (1 - alpha) / a0
}

func (f *biquad) Stream(samples [][2]float64) (n int, ok bool) {
	if f.stopped || f.in == nil {
		clear(samples)
		return len(samples), true
	}

	n, _ = f.in.Stream(samples)
	if n < len(samples) {
		clear(samples[n:])
	}

	t0, dt := f.ctx.blockTime(), f.ctx.sampleStep()
	f.freqBuf = growFloats(f.freqBuf, len(samples))
	f.qBuf = growFloats(f.qBuf, len(samples))
	f.freq.fill(f.freqBuf, t0, dt)
	f.q.fill(f.qBuf, t0, dt)
	f.updateCoefficients(f.freqBuf[0], f.qBuf[0])

	for i := range samples {
		for ch := 0; ch < 2; ch++ {
			x := samples[i][ch]
			y := f.b0*x + f.b1*f.x1[ch] + f.b2*f.x2[ch] - f.a1*f.y1[ch] - f.a2*f.y2[ch]
			f.x2[ch], f.x1[ch] = f.x1[ch], x
			f.y2[ch], f.y1[ch] = f.y1[ch], y
			samples[i][ch] = y
		}
	}
	return len(samples), true
}

func (f *biquad) Err() error { return nil }

func (f *biquad) Stop() {
	if f == nil {
		return
	}
	f.stopped = true
	f.in = nil
}
