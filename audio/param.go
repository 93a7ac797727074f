package audio

import (
	"math"
	"sort"
	"sync"
)

type automationKind int

const (
	autoSet automationKind = iota
	autoLinear
	autoExponential
	autoTarget
)

// automation is one scheduled event; for ramps time is the end of the ramp
type automation struct {
	kind  automationKind
	value float64
	time  float64
	tau   float64
}

// targetDecays is how many time constants a target runs before it is treated as settled
const targetDecays = 12

// Param is a time-automated node parameter evaluated on the context clock
// Every scheduled value is clamped to the param range when scheduled
type Param struct {
	mu        sync.Mutex
	min, max  float64
	value     float64 // settled value at valueTime
	valueTime float64
	events    []automation
}

// NewParam creates a param holding value, bounded to [min, max]
func NewParam(value, min, max float64) *Param {
	p := &Param{min: min, max: max}
	p.value = p.clamp(value)
	return p
}

func (p *Param) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return p.min
	}
	if v < p.min {
		return p.min
	}
	if v > p.max {
		return p.max
	}
	return v
}

// Range returns the param bounds
func (p *Param) Range() (min, max float64) {
	return p.min, p.max
}

// insert keeps events ordered by time, ties keep insertion order
func (p *Param) insert(ev automation) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > ev.time })
	p.events = append(p.events, automation{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}

// SetValue drops all automation and holds v
func (p *Param) SetValue(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = p.events[:0]
	p.value = p.clamp(v)
}

// SetValueAtTime steps to v at time t
func (p *Param) SetValueAtTime(v, t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.insert(automation{kind: autoSet, value: p.clamp(v), time: t})
}

// LinearRampToValueAtTime ramps linearly from the previous event to v at time t
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.insert(automation{kind: autoLinear, value: p.clamp(v), time: t})
}

// ExponentialRampToValueAtTime ramps exponentially from the previous event to v at time t
// The ramp holds its start value when start and end differ in sign or either is zero
func (p *Param) ExponentialRampToValueAtTime(v, t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.insert(automation{kind: autoExponential, value: p.clamp(v), time: t})
}

// SetTargetAtTime approaches target from time t with time constant tau seconds
func (p *Param) SetTargetAtTime(target, t, tau float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tau <= 0 {
		p.insert(automation{kind: autoSet, value: p.clamp(target), time: t})
		return
	}
	p.insert(automation{kind: autoTarget, value: p.clamp(target), time: t, tau: tau})
}

// CancelScheduledValues removes every event at or after t
func (p *Param) CancelScheduledValues(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked(t)
}

func (p *Param) cancelLocked(t float64) {
	kept := p.events[:0]
	for _, ev := range p.events {
		if ev.time < t {
			kept = append(kept, ev)
		}
	}
	p.events = kept
}

// CancelAndHoldAtTime removes events at or after t and holds the value the curve had at t
func (p *Param) CancelAndHoldAtTime(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.valueAtLocked(t)
	p.cancelLocked(t)
	p.insert(automation{kind: autoSet, value: v, time: t})
}

// ValueAt evaluates the automation curve at time t
func (p *Param) ValueAt(t float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valueAtLocked(t)
}

// FinalValue returns the value the automation settles at once every event has run
func (p *Param) FinalValue() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return p.value
	}
	return p.events[len(p.events)-1].value
}

// Pending returns the number of scheduled events not yet folded
func (p *Param) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func targetCurve(v0, target, tau, dt float64) float64 {
	return target + (v0-target)*math.Exp(-dt/tau)
}

func isRamp(k automationKind) bool {
	return k == autoLinear || k == autoExponential
}

func (p *Param) valueAtLocked(t float64) float64 {
	v, vt := p.value, p.valueTime
	for i, ev := range p.events {
		switch ev.kind {
		case autoSet:
			if t < ev.time {
				return v
			}
			v, vt = ev.value, ev.time

		case autoLinear, autoExponential:
			if t >= ev.time {
				v, vt = ev.value, ev.time
				continue
			}
			if t <= vt || ev.time <= vt {
				return v
			}
			frac := (t - vt) / (ev.time - vt)
			if ev.kind == autoLinear {
				return v + (ev.value-v)*frac
			}
			if v == 0 || ev.value == 0 || (v < 0) != (ev.value < 0) {
				return v
			}
			return v * math.Pow(ev.value/v, frac)

		case autoTarget:
			if t < ev.time {
				return v
			}
			next := math.Inf(1)
			if i+1 < len(p.events) {
				nx := p.events[i+1]
				if isRamp(nx.kind) {
					// A ramp after a target starts where the target starts
					vt = ev.time
					continue
				}
				next = nx.time
			}
			if t < next {
				return targetCurve(v, ev.value, ev.tau, t-ev.time)
			}
			v, vt = targetCurve(v, ev.value, ev.tau, next-ev.time), next
		}
	}
	return v
}

// fill writes per-sample values starting at t0 spaced by dt, then folds finished events
func (p *Param) fill(dst []float64, t0, dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.events) == 0 {
		for i := range dst {
			dst[i] = p.value
		}
		return
	}
	for i := range dst {
		dst[i] = p.valueAtLocked(t0 + float64(i)*dt)
	}
	p.foldLocked(t0 + float64(len(dst))*dt)
}

// foldLocked collapses events that can no longer affect values at or after t
func (p *Param) foldLocked(t float64) {
	for len(p.events) > 0 {
		ev := p.events[0]
		if ev.time > t {
			return
		}
		switch ev.kind {
		case autoSet, autoLinear, autoExponential:
			p.value, p.valueTime = ev.value, ev.time

		case autoTarget:
			if len(p.events) > 1 {
				nx := p.events[1]
				if isRamp(nx.kind) {
					p.valueTime = ev.time
					break
				}
				if nx.time > t {
					return
				}
				p.value = targetCurve(p.value, ev.value, ev.tau, nx.time-ev.time)
				p.valueTime = nx.time
				break
			}
			if t-ev.time < targetDecays*ev.tau {
				return
			}
			p.value, p.valueTime = ev.value, t
		}
		p.events = p.events[1:]
	}
}
