package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lixenwraith/quietear/parameter"
	"github.com/lixenwraith/quietear/status"
)

// Engine is the safe playback facade
// One session plays at a time; every play call tears down the previous one before building
type Engine struct {
	config   *Config
	clock    Clock
	log      *slog.Logger
	openSink SinkFactory
	rng      *rand.Rand // Seeds per-session generators, guarded by mu
	status   *status.Registry
	metrics  engineMetrics

	playMu sync.Mutex // Serialises play, stop and destroy

	mu        sync.Mutex
	ctx       *Context
	master    *MasterChain
	sink      Sink
	noise     *noiseCache
	volume    float64
	state     State
	session   *session
	gen       uint64
	destroyed bool
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the wall clock driving teardown, auto-stop and sequencer timers
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSinkFactory replaces OpenSink
func WithSinkFactory(f SinkFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.openSink = f
		}
	}
}

// WithSeed makes noise content and sequencer order reproducible
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// NewEngine creates an engine; the audio context and output open on first use
func NewEngine(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	switch cfg.Sink {
	case SinkAuto, SinkSpeaker, SinkPipe, SinkNull, "":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, cfg.Sink)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = parameter.AudioBufferDuration
	}

	e := &Engine{
		config:   cfg,
		clock:    WallClock(),
		log:      slog.Default(),
		openSink: OpenSink,
		volume:   ClampGain(cfg.Volume),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.status == nil {
		e.status = status.NewRegistry()
	}
	e.metrics = newEngineMetrics(e.status)
	e.metrics.volume.Set(e.volume)
	e.noise = newNoiseCache(cfg.SampleRate.N(parameter.NoiseDuration), e.childRand())

	return e, nil
}

// childRand derives an independent generator; caller holds mu or is the constructor
func (e *Engine) childRand() *rand.Rand {
	return rand.New(rand.NewPCG(e.rng.Uint64(), e.rng.Uint64()))
}

// Config returns the engine configuration
func (e *Engine) Config() *Config {
	return e.config
}

// ensureChainLocked lazily creates the audio context and master chain
func (e *Engine) ensureChainLocked() {
	if e.ctx != nil {
		return
	}
	e.ctx = NewContext(e.config.SampleRate)
	e.master = newMasterChain(e.ctx)
	e.master.reduction = e.metrics.reduction
	e.ctx.setDestination(e.master)
}

// ensureOutputLocked opens the sink; open failures reach the caller unchanged in meaning
func (e *Engine) ensureOutputLocked() error {
	e.ensureChainLocked()
	if e.sink != nil {
		return nil
	}

	sink, err := e.openSink(e.config)
	if err != nil {
		return fmt.Errorf("open audio output: %w", err)
	}
	if err := sink.Start(e.ctx); err != nil {
		sink.Close()
		return fmt.Errorf("start %s output: %w", sink.Name(), err)
	}
	e.sink = sink
	e.metrics.sink.Set(sink.Name())
	e.log.Info("audio output started", "sink", sink.Name(), "rate", int(e.config.SampleRate))

	// Pipe backends report write failures; drop the sink so the next play reopens it
	if es, ok := sink.(interface{ Errors() <-chan error }); ok {
		go e.monitorSink(sink, es.Errors())
	}
	return nil
}

func (e *Engine) monitorSink(sink Sink, errs <-chan error) {
	err, ok := <-errs
	if !ok {
		return
	}
	e.log.Warn("audio output failed", "sink", sink.Name(), "error", err)
	e.metrics.outputErrors.Add(1)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sink == sink {
		e.sink = nil
		e.metrics.sink.Set("")
		sink.Close()
	}
}

// play runs the shared lifecycle: stop, build, fade in, arm
func (e *Engine) play(ctx context.Context, build func(ac *Context) graph, arm func(s *session)) error {
	e.playMu.Lock()
	defer e.playMu.Unlock()

	if e.isDestroyed() {
		return ErrEngineDestroyed
	}
	if err := e.stopAndWait(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.destroyed {
		return ErrEngineDestroyed
	}
	if err := e.ensureOutputLocked(); err != nil {
		return err
	}

	e.gen++

	e.ctx.Lock()
	g := build(e.ctx)
	target := SafeTarget(e.volume, g.eqID())
	now := e.ctx.CurrentTime()

	gain := e.master.Gain()
	gain.CancelScheduledValues(0)
	gain.SetValueAtTime(parameter.FadeFloor, now)
	if target > parameter.FadeFloor {
		gain.ExponentialRampToValueAtTime(target, now+parameter.FadeIn.Seconds())
	} else {
		gain.LinearRampToValueAtTime(target, now+parameter.FadeIn.Seconds())
	}
	e.master.Connect(g.output())
	e.ctx.Unlock()

	s := newSession(e.gen, g, target)
	e.session = s
	e.state = StateStarting
	if arm != nil {
		arm(s)
	}
	e.state = StatePlaying
	e.metrics.sessions.Add(1)
	e.metrics.playing.Store(true)
	e.metrics.mode.Set(g.mode().String())

	e.log.Debug("playback started", "mode", g.mode(), "session", s.id, "target", target)
	return nil
}

// Stop fades out and returns once the session is torn down or ctx ends
func (e *Engine) Stop(ctx context.Context) error {
	e.playMu.Lock()
	defer e.playMu.Unlock()
	return e.stopAndWait(ctx)
}

func (e *Engine) stopAndWait(ctx context.Context) error {
	done := e.StopAsync()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopAsync starts the fade-out and returns a channel closed after teardown
// With nothing playing the channel is already closed
func (e *Engine) StopAsync() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.beginStopLocked()
}

func (e *Engine) beginStopLocked() <-chan struct{} {
	s := e.session
	if s == nil {
		return closedChan
	}
	if s.stopping {
		return s.done
	}

	s.stopping = true
	e.state = StateStopping
	if s.autoStop != nil {
		s.autoStop.Stop()
		s.autoStop = nil
	}

	now := e.ctx.CurrentTime()
	gain := e.master.Gain()
	gain.CancelAndHoldAtTime(now)
	gain.SetTargetAtTime(0, now, parameter.StopTimeConstant.Seconds())

	s.teardown = e.clock.AfterFunc(parameter.TeardownDelay, func() {
		e.teardown(s)
	})
	e.log.Debug("playback stopping", "mode", s.graph.mode(), "session", s.id)
	return s.done
}

// teardown disconnects and releases s if it is still the current session
func (e *Engine) teardown(s *session) {
	e.mu.Lock()
	if e.session != s {
		e.mu.Unlock()
		return
	}

	e.ctx.Lock()
	e.master.Disconnect()
	s.teardown = nil // Running now, nothing to cancel
	s.release()
	e.ctx.Unlock()

	e.session = nil
	e.state = StateIdle
	e.metrics.playing.Store(false)
	e.metrics.mode.Set(ModeNone.String())
	close(s.done)
	auto := s.autoStopped
	e.mu.Unlock()

	e.log.Debug("playback torn down", "mode", s.graph.mode(), "session", s.id)
	if auto && s.onFinish != nil {
		s.onFinish()
	}
}

// expire ends a residual inhibition session when its duration elapses
func (e *Engine) expire(s *session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != s || s.stopping || s.gen != e.gen {
		return
	}
	s.autoStop = nil
	s.autoStopped = true
	e.metrics.autoStops.Add(1)
	e.log.Info("residual inhibition complete", "session", s.id)
	e.beginStopLocked()
}

// Destroy stops playback, closes the output and invalidates the engine
func (e *Engine) Destroy(ctx context.Context) error {
	e.playMu.Lock()
	defer e.playMu.Unlock()

	if e.isDestroyed() {
		return nil
	}
	if err := e.stopAndWait(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.destroyed = true
	var err error
	if e.sink != nil {
		err = e.sink.Close()
		e.sink = nil
		e.metrics.sink.Set("")
	}
	if e.ctx != nil {
		e.ctx.Close()
	}
	e.ctx = nil
	e.master = nil
	e.noise.release()
	e.state = StateIdle

	e.log.Debug("engine destroyed")
	return err
}

func (e *Engine) isDestroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

// NoiseOption adjusts noise playback
type NoiseOption func(*noiseOptions)

type noiseOptions struct {
	center    float64
	hasCenter bool
	q         float64
	color     NoiseColor
}

// WithCenter band-limits noise around hz with a bandpass filter
func WithCenter(hz float64) NoiseOption {
	return func(o *noiseOptions) {
		o.center = hz
		o.hasCenter = true
	}
}

// WithQ sets the filter quality factor; non-positive values keep the mode default
func WithQ(q float64) NoiseOption {
	return func(o *noiseOptions) {
		if q > 0 && !math.IsInf(q, 0) {
			o.q = q
		}
	}
}

// WithColor selects the noise color for notched noise
func WithColor(c NoiseColor) NoiseOption {
	return func(o *noiseOptions) {
		o.color = c
	}
}

// noiseBuffer fetches a loop outside the render lock; a destroyed engine generates nothing
func (e *Engine) noiseBuffer(color NoiseColor) (*NoiseBuffer, error) {
	if e.isDestroyed() {
		return nil, ErrEngineDestroyed
	}
	buf := e.noise.get(color)
	if buf == nil {
		return nil, ErrEngineDestroyed
	}
	return buf, nil
}

func validColor(c NoiseColor) error {
	if c < 0 || c >= noiseColorCount {
		return fmt.Errorf("%w: %d", ErrUnknownNoiseColor, int(c))
	}
	return nil
}

func validWaveform(w Waveform) error {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Errorf("%w: %d", ErrUnknownWaveform, int(w))
	}
	return nil
}

// PlayTone plays a single oscillator
func (e *Engine) PlayTone(ctx context.Context, freq float64, wave Waveform) error {
	if err := validWaveform(wave); err != nil {
		return err
	}
	return e.play(ctx, func(ac *Context) graph {
		return buildTone(ac, ModeTone, freq, wave)
	}, nil)
}

// PlayNoise loops colored noise, band-limited when WithCenter is given
func (e *Engine) PlayNoise(ctx context.Context, color NoiseColor, opts ...NoiseOption) error {
	if err := validColor(color); err != nil {
		return err
	}
	o := noiseOptions{q: parameter.DefaultBandpassQ, color: color}
	for _, opt := range opts {
		opt(&o)
	}
	buf, err := e.noiseBuffer(color)
	if err != nil {
		return err
	}
	return e.play(ctx, func(ac *Context) graph {
		return buildNoise(ac, buf, o)
	}, nil)
}

// PlayNotchedNoise loops noise with a band removed around freq
func (e *Engine) PlayNotchedNoise(ctx context.Context, freq float64, opts ...NoiseOption) error {
	o := noiseOptions{q: parameter.DefaultNotchQ, color: NoisePink}
	for _, opt := range opts {
		opt(&o)
	}
	if err := validColor(o.color); err != nil {
		return err
	}
	buf, err := e.noiseBuffer(o.color)
	if err != nil {
		return err
	}
	return e.play(ctx, func(ac *Context) graph {
		return buildNotchedNoise(ac, buf, freq, o)
	}, nil)
}

// PlayCoordinatedReset cycles four tones around center, switching every tempo
func (e *Engine) PlayCoordinatedReset(ctx context.Context, center float64, tempo time.Duration) error {
	if tempo <= 0 {
		tempo = parameter.DefaultResetTempo
	}
	return e.play(ctx, func(ac *Context) graph {
		return buildCoordinatedReset(ac, e.clock, center, tempo, e.childRand())
	}, func(s *session) {
		s.graph.(*resetGraph).seq.Start()
	})
}

// PlayAmplitudeModulation plays a sine carrier whose level swings at rate Hz by depth
// Zero or invalid rate means 10 Hz; negative or invalid depth means full depth
func (e *Engine) PlayAmplitudeModulation(ctx context.Context, freq, rate, depth float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = parameter.DefaultModRate
	}
	if depth < 0 || math.IsNaN(depth) {
		depth = parameter.DefaultModDepth
	}
	depth = clampUnit(depth)
	return e.play(ctx, func(ac *Context) graph {
		return buildAmplitudeModulation(ac, freq, rate, depth)
	}, nil)
}

// PlayBinaural plays base on the left ear and base+beat on the right
func (e *Engine) PlayBinaural(ctx context.Context, base, beat float64) error {
	if beat <= 0 || math.IsNaN(beat) || math.IsInf(beat, 0) {
		beat = parameter.DefaultBeatFrequency
	}
	return e.play(ctx, func(ac *Context) graph {
		return buildBinaural(ac, base, beat)
	}, nil)
}

// PlayResidualInhibition plays a sine for d, then stops and calls onFinish once torn down
// onFinish is not called when the session ends any other way
func (e *Engine) PlayResidualInhibition(ctx context.Context, freq float64, d time.Duration, onFinish func()) error {
	if d <= 0 {
		d = parameter.DefaultInhibition
	}
	return e.play(ctx, func(ac *Context) graph {
		return buildTone(ac, ModeResidualInhibition, freq, WaveSine)
	}, func(s *session) {
		s.onFinish = onFinish
		s.autoStop = e.clock.AfterFunc(d, func() {
			e.expire(s)
		})
	})
}

// PlayPhaseCancellation plays a sine inverted in phase
func (e *Engine) PlayPhaseCancellation(ctx context.Context, freq float64) error {
	return e.play(ctx, func(ac *Context) graph {
		return buildPhaseCancellation(ac, freq)
	}, nil)
}

// activeLocked returns the session accepting live updates, nil when idle or stopping
func (e *Engine) activeLocked() *session {
	if e.destroyed || e.session == nil || e.session.stopping {
		return nil
	}
	return e.session
}

// SetVolume stores the clamped volume and glides the master gain to its equalized target
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = ClampGain(v)
	e.metrics.volume.Set(e.volume)
	s := e.activeLocked()
	if s == nil {
		return
	}
	s.target = SafeTarget(e.volume, s.graph.eqID())
	glide(e.master.Gain(), s.target, e.ctx.CurrentTime())
}

// UpdateOscillatorFrequency retunes the active oscillators without rebuilding the graph
// Returns false when nothing plays or the mode has no oscillator
func (e *Engine) UpdateOscillatorFrequency(f float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.activeLocked()
	if s == nil {
		return false
	}
	return s.graph.setFrequency(ClampFrequency(f), e.ctx.CurrentTime())
}

// UpdateFilterFrequency moves the active filter center without rebuilding the graph
// Returns false when nothing plays or the mode has no filter
func (e *Engine) UpdateFilterFrequency(f float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.activeLocked()
	if s == nil {
		return false
	}
	return s.graph.setFilterFrequency(ClampFrequency(f), e.ctx.CurrentTime())
}

// Volume returns the stored volume in [0, MaxSafeGain]
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// IsPlaying reports whether a session exists, including while it fades out
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil
}

// State returns the lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Mode returns the active mode, ModeNone when idle
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ModeNone
	}
	return e.session.graph.mode()
}

// SessionID returns the active session id, uuid.Nil when idle
func (e *Engine) SessionID() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return uuid.Nil
	}
	return e.session.id
}

// Analyser returns the master analysis tap, creating the chain if needed
// Returns nil after Destroy
func (e *Engine) Analyser() *Analyser {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil
	}
	e.ensureChainLocked()
	return e.master.Analyser()
}

// Context returns the audio context, nil before first use or after Destroy
func (e *Engine) Context() *Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx
}

// MasterGain returns the master gain param, nil before first use or after Destroy
func (e *Engine) MasterGain() *Param {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.master == nil {
		return nil
	}
	return e.master.Gain()
}
