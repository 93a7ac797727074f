package audio

import (
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/quietear/parameter"
)

// graph is the node set of one playback session
// Each variant owns exactly the nodes its mode builds; release stops all of them
type graph interface {
	mode() Mode
	output() beep.Streamer
	// eqID names the loudness equalization entry applied to the master target
	eqID() string
	// setFrequency retunes the oscillators at context time t; false when the mode has none
	setFrequency(hz, t float64) bool
	// setFilterFrequency moves the filter center at context time t; false when the mode has none
	setFilterFrequency(hz, t float64) bool
	release()
}

// glide moves p toward v from t with the live-update time constant
func glide(p *Param, v, t float64) {
	p.CancelAndHoldAtTime(t)
	p.SetTargetAtTime(v, t, parameter.ParamTimeConstant.Seconds())
}

// toneGraph is a single oscillator, shared by tone and residual inhibition
type toneGraph struct {
	kind Mode
	wave Waveform
	osc  *oscillator
}

func buildTone(ctx *Context, kind Mode, hz float64, wave Waveform) *toneGraph {
	return &toneGraph{
		kind: kind,
		wave: wave,
		osc:  newOscillator(ctx, wave, ClampFrequency(hz), parameter.MinFreq),
	}
}

func (g *toneGraph) mode() Mode            { return g.kind }
func (g *toneGraph) output() beep.Streamer { return g.osc }
func (g *toneGraph) eqID() string          { return g.wave.String() }

func (g *toneGraph) setFrequency(hz, t float64) bool {
	glide(g.osc.freq, ClampFrequency(hz), t)
	return true
}

func (g *toneGraph) setFilterFrequency(float64, float64) bool { return false }

func (g *toneGraph) release() {
	stopAll(g.osc)
}

// noiseGraph loops a noise buffer, optionally through a bandpass or notch filter
type noiseGraph struct {
	kind   Mode
	color  NoiseColor
	src    *noiseSource
	filter *biquad // nil for broadband noise
}

func buildNoise(ctx *Context, buf *NoiseBuffer, o noiseOptions) *noiseGraph {
	g := &noiseGraph{
		kind:  ModeNoise,
		color: buf.Color(),
		src:   newNoiseSource(buf),
	}
	if o.hasCenter {
		g.filter = newBiquad(ctx, FilterBandpass, g.src, ClampFrequency(o.center), o.q)
	}
	return g
}

func buildNotchedNoise(ctx *Context, buf *NoiseBuffer, hz float64, o noiseOptions) *noiseGraph {
	src := newNoiseSource(buf)
	return &noiseGraph{
		kind:   ModeNotchedNoise,
		color:  buf.Color(),
		src:    src,
		filter: newBiquad(ctx, FilterNotch, src, ClampFrequency(hz), o.q),
	}
}

func (g *noiseGraph) mode() Mode { return g.kind }

func (g *noiseGraph) output() beep.Streamer {
	if g.filter != nil {
		return g.filter
	}
	return g.src
}

func (g *noiseGraph) eqID() string { return g.color.String() }

func (g *noiseGraph) setFrequency(float64, float64) bool { return false }

func (g *noiseGraph) setFilterFrequency(hz, t float64) bool {
	if g.filter == nil {
		return false
	}
	glide(g.filter.freq, ClampFrequency(hz), t)
	return true
}

func (g *noiseGraph) release() {
	stopAll(g.filter, g.src)
}

// resetGraph holds four sine tones around a center, each behind a silent gain the sequencer drives
type resetGraph struct {
	center float64
	oscs   [parameter.ResetToneCount]*oscillator
	gains  [parameter.ResetToneCount]*gainNode
	mix    beep.Streamer
	seq    *Sequencer
}

func buildCoordinatedReset(ctx *Context, clock Clock, center float64, tempo time.Duration, rng *rand.Rand) *resetGraph {
	g := &resetGraph{center: ClampFrequency(center)}

	var params [parameter.ResetToneCount]*Param
	streamers := make([]beep.Streamer, 0, parameter.ResetToneCount)
	for i, ratio := range parameter.ResetRatios {
		g.oscs[i] = newOscillator(ctx, WaveSine, ClampFrequency(g.center*ratio), parameter.MinFreq)
		g.gains[i] = newGainNode(ctx, g.oscs[i], 0, 0, 1)
		params[i] = g.gains[i].gain
		streamers = append(streamers, g.gains[i])
	}
	g.mix = beep.Mix(streamers...)
	g.seq = newSequencer(ctx, clock, params, tempo, rng)
	return g
}

func (g *resetGraph) mode() Mode            { return ModeCoordinatedReset }
func (g *resetGraph) output() beep.Streamer { return g.mix }
func (g *resetGraph) eqID() string          { return WaveSine.String() }

// Frequencies returns the current tone frequencies in ratio order
func (g *resetGraph) frequencies() [parameter.ResetToneCount]float64 {
	var out [parameter.ResetToneCount]float64
	for i, o := range g.oscs {
		out[i] = o.freq.FinalValue()
	}
	return out
}

func (g *resetGraph) setFrequency(hz, t float64) bool {
	g.center = ClampFrequency(hz)
	for i, o := range g.oscs {
		glide(o.freq, ClampFrequency(g.center*parameter.ResetRatios[i]), t)
	}
	return true
}

func (g *resetGraph) setFilterFrequency(float64, float64) bool { return false }

func (g *resetGraph) release() {
	g.seq.Stop()
	for i := range g.oscs {
		stopAll(g.gains[i], g.oscs[i])
	}
}

// amGraph is a carrier whose gain swings around 1-depth/2 by depth/2 at the modulation rate
type amGraph struct {
	carrier *oscillator
	lfo     *oscillator
	vca     *gainNode
	rate    float64
	depth   float64
}

func buildAmplitudeModulation(ctx *Context, hz, rate, depth float64) *amGraph {
	g := &amGraph{
		carrier: newOscillator(ctx, WaveSine, ClampFrequency(hz), parameter.MinFreq),
		lfo:     newOscillator(ctx, WaveSine, rate, 0),
		rate:    rate,
		depth:   depth,
	}
	g.vca = newGainNode(ctx, g.carrier, 1-depth/2, 0, 1)
	g.vca.modulate(g.lfo, depth/2)
	return g
}

func (g *amGraph) mode() Mode            { return ModeAmplitudeModulation }
func (g *amGraph) output() beep.Streamer { return g.vca }
func (g *amGraph) eqID() string          { return WaveSine.String() }

func (g *amGraph) setFrequency(hz, t float64) bool {
	glide(g.carrier.freq, ClampFrequency(hz), t)
	return true
}

func (g *amGraph) setFilterFrequency(float64, float64) bool { return false }

func (g *amGraph) release() {
	stopAll(g.vca, g.lfo, g.carrier)
}

// binauralGraph plays base on the left channel and base+beat on the right
type binauralGraph struct {
	left, right *oscillator
	beat        float64
	merge       *merger
}

func buildBinaural(ctx *Context, base, beat float64) *binauralGraph {
	base = ClampFrequency(base)
	g := &binauralGraph{
		left:  newOscillator(ctx, WaveSine, base, parameter.MinFreq),
		right: newOscillator(ctx, WaveSine, ClampFrequency(base+beat), parameter.MinFreq),
		beat:  beat,
	}
	g.merge = newMerger(g.left, g.right)
	return g
}

func (g *binauralGraph) mode() Mode            { return ModeBinaural }
func (g *binauralGraph) output() beep.Streamer { return g.merge }
func (g *binauralGraph) eqID() string          { return WaveSine.String() }

func (g *binauralGraph) setFrequency(hz, t float64) bool {
	base := ClampFrequency(hz)
	glide(g.left.freq, base, t)
	glide(g.right.freq, ClampFrequency(base+g.beat), t)
	return true
}

func (g *binauralGraph) setFilterFrequency(float64, float64) bool { return false }

func (g *binauralGraph) release() {
	stopAll(g.merge, g.left, g.right)
}

// phaseGraph is a sine routed through a fixed inverting gain
type phaseGraph struct {
	osc    *oscillator
	invert *gainNode
}

func buildPhaseCancellation(ctx *Context, hz float64) *phaseGraph {
	osc := newOscillator(ctx, WaveSine, ClampFrequency(hz), parameter.MinFreq)
	return &phaseGraph{
		osc:    osc,
		invert: newGainNode(ctx, osc, parameter.PhaseInversionGain, -1, 1),
	}
}

func (g *phaseGraph) mode() Mode            { return ModePhaseCancellation }
func (g *phaseGraph) output() beep.Streamer { return g.invert }
func (g *phaseGraph) eqID() string          { return WaveSine.String() }

func (g *phaseGraph) setFrequency(hz, t float64) bool {
	glide(g.osc.freq, ClampFrequency(hz), t)
	return true
}

func (g *phaseGraph) setFilterFrequency(float64, float64) bool { return false }

func (g *phaseGraph) release() {
	stopAll(g.invert, g.osc)
}
