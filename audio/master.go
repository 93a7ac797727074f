package audio

import (
	"github.com/gopxl/beep"

	"github.com/lixenwraith/quietear/parameter"
	"github.com/lixenwraith/quietear/status"
)

// MasterChain is the fixed tail of every signal path: gain, limiter, analyser
// Created once per engine; only the input is swapped as sessions change
// Connect and Disconnect expect the context lock to be held
type MasterChain struct {
	ctx      *Context
	gain     *Param
	limiter  *Limiter
	analyser *Analyser

	input     beep.Streamer
	gainBuf   []float64
	reduction *status.Float // Published limiter reduction, optional
}

func newMasterChain(ctx *Context) *MasterChain {
	return &MasterChain{
		ctx:      ctx,
		gain:     NewParam(0, 0, parameter.MaxSafeGain),
		limiter:  NewLimiter(ctx.rate),
		analyser: NewAnalyser(ctx.rate, parameter.AnalyserSize),
	}
}

// Gain returns the master gain param, bounded to [0, MaxSafeGain]
func (m *MasterChain) Gain() *Param {
	return m.gain
}

// Limiter returns the output limiter
func (m *MasterChain) Limiter() *Limiter {
	return m.limiter
}

// Analyser returns the analysis tap
func (m *MasterChain) Analyser() *Analyser {
	return m.analyser
}

// Connect routes s into the chain, replacing any previous input
func (m *MasterChain) Connect(s beep.Streamer) {
	m.input = s
}

// Disconnect detaches the input; calling it while disconnected is a no-op
func (m *MasterChain) Disconnect() {
	m.input = nil
}

// Connected reports whether a graph feeds the chain
func (m *MasterChain) Connected() bool {
	return m.input != nil
}

// Stream renders one block through gain, limiter and analyser
func (m *MasterChain) Stream(samples [][2]float64) (n int, ok bool) {
	if m.input == nil {
		clear(samples)
	} else if n, _ = m.input.Stream(samples); n < len(samples) {
		clear(samples[n:])
	}

	m.gainBuf = growFloats(m.gainBuf, len(samples))
	m.gain.fill(m.gainBuf, m.ctx.blockTime(), m.ctx.sampleStep())
	for i := range samples {
		samples[i][0] *= m.gainBuf[i]
		samples[i][1] *= m.gainBuf[i]
	}

	m.limiter.Process(samples)
	if m.reduction != nil {
		m.reduction.Set(m.limiter.Reduction())
	}
	m.analyser.write(samples)
	return len(samples), true
}

// Err implements beep.Streamer
func (m *MasterChain) Err() error {
	return nil
}
