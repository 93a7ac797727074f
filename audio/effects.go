package audio

import (
	"math"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/quietear/parameter"
)

// node is a graph element that can be silenced and detached
// Stop is idempotent and safe on a partially built graph
type node interface {
	beep.Streamer
	Stop()
}

// growFloats returns buf resized to n, reallocating only when capacity is short
func growFloats(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

func growFrames(buf [][2]float64, n int) [][2]float64 {
	if cap(buf) < n {
		return make([][2]float64, n)
	}
	return buf[:n]
}

// waveSample evaluates a unit-amplitude waveform at phase in [0, 1)
func waveSample(w Waveform, phase float64) float64 {
	switch w {
	case WaveSquare:
		if phase < 0.5 {
			return 1.0
		}
		return -1.0
	case WaveSawtooth:
		return 2.0 * (phase - 0.5)
	case WaveTriangle:
		return 1.0 - 4.0*math.Abs(phase-0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// oscillator generates an endless periodic wave with an automated frequency
type oscillator struct {
	ctx     *Context
	wave    Waveform
	freq    *Param
	phase   float64
	stopped bool
	freqBuf []float64
}

// newOscillator creates an oscillator whose frequency is bounded to [minHz, MaxFreq]
func newOscillator(ctx *Context, wave Waveform, hz, minHz float64) *oscillator {
	return &oscillator{
		ctx:  ctx,
		wave: wave,
		freq: NewParam(hz, minHz, parameter.MaxFreq),
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	if o.stopped {
		clear(samples)
		return len(samples), true
	}

	o.freqBuf = growFloats(o.freqBuf, len(samples))
	o.freq.fill(o.freqBuf, o.ctx.blockTime(), o.ctx.sampleStep())
	rate := float64(o.ctx.rate)

	for i := range samples {
		val := waveSample(o.wave, o.phase)
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freqBuf[i] / rate
		o.phase -= math.Floor(o.phase) // Keep in [0, 1)
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

func (o *oscillator) Stop() {
	if o != nil {
		o.stopped = true
	}
}

// noiseSource loops a cached noise buffer on both channels
type noiseSource struct {
	buf     *NoiseBuffer
	pos     int
	stopped bool
}

func newNoiseSource(buf *NoiseBuffer) *noiseSource {
	return &noiseSource{buf: buf}
}

func (s *noiseSource) Stream(samples [][2]float64) (n int, ok bool) {
	data := s.buf.samples
	if s.stopped || len(data) == 0 {
		clear(samples)
		return len(samples), true
	}
	for i := range samples {
		val := data[s.pos]
		samples[i][0] = val
		samples[i][1] = val
		s.pos++
		if s.pos >= len(data) {
			s.pos = 0
		}
	}
	return len(samples), true
}

func (s *noiseSource) Err() error { return nil }

func (s *noiseSource) Stop() {
	if s != nil {
		s.stopped = true
	}
}

// gainNode scales its input by an automated gain plus an optional modulating signal
// The modulator's left channel is added to the intrinsic gain per sample
type gainNode struct {
	ctx      *Context
	in       beep.Streamer
	gain     *Param
	mod      beep.Streamer
	modScale float64
	stopped  bool

	gainBuf []float64
	modBuf  [][2]float64
}

func newGainNode(ctx *Context, in beep.Streamer, gain, min, max float64) *gainNode {
	return &gainNode{
		ctx:  ctx,
		in:   in,
		gain: NewParam(gain, min, max),
	}
}

// modulate routes s into the gain, scaled by scale
func (g *gainNode) modulate(s beep.Streamer, scale float64) {
	g.mod = s
	g.modScale = scale
}

func (g *gainNode) Stream(samples [][2]float64) (n int, ok bool) {
	if g.stopped || g.in == nil {
		clear(samples)
		return len(samples), true
	}

	n, _ = g.in.Stream(samples)
	if n < len(samples) {
		clear(samples[n:])
	}

	g.gainBuf = growFloats(g.gainBuf, len(samples))
	g.gain.fill(g.gainBuf, g.ctx.blockTime(), g.ctx.sampleStep())

	if g.mod != nil {
		g.modBuf = growFrames(g.modBuf, len(samples))
		mn, _ := g.mod.Stream(g.modBuf)
		for i := 0; i < mn; i++ {
			g.gainBuf[i] += g.modBuf[i][0] * g.modScale
		}
	}

	for i := range samples {
		samples[i][0] *= g.gainBuf[i]
		samples[i][1] *= g.gainBuf[i]
	}
	return len(samples), true
}

func (g *gainNode) Err() error { return nil }

func (g *gainNode) Stop() {
	if g == nil {
		return
	}
	g.stopped = true
	g.in = nil
	g.mod = nil
}

// merger places the left channel of each input on its own output channel
type merger struct {
	left, right beep.Streamer
	stopped     bool
	rightBuf    [][2]float64
}

func newMerger(left, right beep.Streamer) *merger {
	return &merger{left: left, right: right}
}

func (m *merger) Stream(samples [][2]float64) (n int, ok bool) {
	if m.stopped {
		clear(samples)
		return len(samples), true
	}

	m.rightBuf = growFrames(m.rightBuf, len(samples))
	ln, _ := m.left.Stream(samples)
	rn, _ := m.right.Stream(m.rightBuf)

	for i := range samples {
		var l, r float64
		if i < ln {
			l = samples[i][0]
		}
		if i < rn {
			r = m.rightBuf[i][0]
		}
		samples[i][0] = l
		samples[i][1] = r
	}
	return len(samples), true
}

func (m *merger) Err() error { return nil }

func (m *merger) Stop() {
	if m != nil {
		m.stopped = true
	}
}

// stopAll stops every node; nil and typed-nil nodes are skipped by their Stop
func stopAll(nodes ...node) {
	for _, n := range nodes {
		if n != nil {
			n.Stop()
		}
	}
}
