package audio

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/lixenwraith/quietear/parameter"
)

// Sequencer cycles the coordinated reset tones on a fixed interval
// Each step fades the sounding tone and raises a different one chosen at random
type Sequencer struct {
	ctx   *Context
	clock Clock
	gains [parameter.ResetToneCount]*Param
	tempo time.Duration

	mu      sync.Mutex
	rng     *rand.Rand
	current int
	steps   int
	running bool
	gen     uint64
	timer   Timer
	onStep  func(int)
}

func newSequencer(ctx *Context, clock Clock, gains [parameter.ResetToneCount]*Param, tempo time.Duration, rng *rand.Rand) *Sequencer {
	if tempo < parameter.MinResetTempo {
		tempo = parameter.MinResetTempo
	}
	return &Sequencer{
		ctx:     ctx,
		clock:   clock,
		gains:   gains,
		tempo:   tempo,
		rng:     rng,
		current: -1,
	}
}

// Start fires the first step immediately, then one per tempo interval
func (s *Sequencer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.gen++
	s.stepLocked()
	s.scheduleLocked(s.gen)
}

func (s *Sequencer) scheduleLocked(gen uint64) {
	s.timer = s.clock.AfterFunc(s.tempo, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		// Stale callbacks from a cancelled run do nothing
		if !s.running || gen != s.gen {
			return
		}
		s.stepLocked()
		s.scheduleLocked(gen)
	})
}

// Stop cancels the interval; no step runs after Stop returns
func (s *Sequencer) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Step advances one tone manually and returns the new index
func (s *Sequencer) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLocked()
}

func (s *Sequencer) stepLocked() int {
	now := s.ctx.CurrentTime()
	tau := parameter.ResetTimeConstant.Seconds()

	if s.current >= 0 {
		g := s.gains[s.current]
		g.CancelAndHoldAtTime(now)
		g.SetTargetAtTime(0, now, tau)
	}

	next := s.rng.IntN(parameter.ResetToneCount)
	for next == s.current {
		next = s.rng.IntN(parameter.ResetToneCount)
	}

	onset := now + parameter.ResetOnsetDelay.Seconds()
	g := s.gains[next]
	g.CancelAndHoldAtTime(onset)
	g.SetTargetAtTime(parameter.ResetToneLevel, onset, tau)

	s.current = next
	s.steps++
	if s.onStep != nil {
		s.onStep(next)
	}
	return next
}

// Current returns the sounding tone index, -1 before the first step
func (s *Sequencer) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Steps returns how many steps have run
func (s *Sequencer) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

// Running reports whether the interval is active
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tempo returns the step interval
func (s *Sequencer) Tempo() time.Duration {
	return s.tempo
}
