package status

import (
	"math"
	"sync/atomic"
)

// Float is an atomic float64; the zero value holds 0.0
type Float struct {
	bits atomic.Uint64
}

// Set stores v
func (f *Float) Set(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// Get loads the current value
func (f *Float) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Max raises the value to v if v is larger and returns the result
func (f *Float) Max(v float64) float64 {
	for {
		old := f.bits.Load()
		cur := math.Float64frombits(old)
		if v <= cur {
			return cur
		}
		if f.bits.CompareAndSwap(old, math.Float64bits(v)) {
			return v
		}
	}
}

// Text is an atomic short string; the zero value holds ""
type Text struct {
	ptr atomic.Pointer[string]
}

// maxTextLen bounds stored strings, display fields are short
const maxTextLen = 32

// Set stores v, truncated to maxTextLen bytes
func (t *Text) Set(v string) {
	if len(v) > maxTextLen {
		v = v[:maxTextLen]
	}
	t.ptr.Store(&v)
}

// Get loads the current value
func (t *Text) Get() string {
	if p := t.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
