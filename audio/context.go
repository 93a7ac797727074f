package audio

import (
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
)

// renderQuantum is the number of frames rendered between clock advances
const renderQuantum = 128

// Context owns the sample clock and serialises graph mutation against rendering
// Sinks pull audio through Stream; graph code holds Lock while rewiring nodes
type Context struct {
	rate beep.SampleRate

	mu     sync.Mutex
	dest   beep.Streamer
	closed bool

	frames atomic.Int64
}

// NewContext creates a context rendering at rate
func NewContext(rate beep.SampleRate) *Context {
	return &Context{rate: rate}
}

// SampleRate returns the render rate
func (c *Context) SampleRate() beep.SampleRate {
	return c.rate
}

// CurrentTime returns the seconds rendered so far
func (c *Context) CurrentTime() float64 {
	return float64(c.frames.Load()) / float64(c.rate)
}

// Frames returns the frames rendered so far
func (c *Context) Frames() int64 {
	return c.frames.Load()
}

// Lock blocks rendering until Unlock
func (c *Context) Lock() {
	c.mu.Lock()
}

// Unlock resumes rendering
func (c *Context) Unlock() {
	c.mu.Unlock()
}

// setDestination installs the streamer every render pulls from
func (c *Context) setDestination(s beep.Streamer) {
	c.mu.Lock()
	c.dest = s
	c.mu.Unlock()
}

// blockTime is the context time of the first frame of the block being rendered
func (c *Context) blockTime() float64 {
	return c.CurrentTime()
}

// sampleStep is the duration of one frame in seconds
func (c *Context) sampleStep() float64 {
	return 1 / float64(c.rate)
}

// Stream renders the destination in quanta, advancing the clock after each one
// A closed context or one without destination renders silence without advancing
func (c *Context) Stream(samples [][2]float64) (n int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.dest == nil {
		clear(samples)
		return len(samples), true
	}

	for off := 0; off < len(samples); off += renderQuantum {
		end := min(off+renderQuantum, len(samples))
		block := samples[off:end]
		if sn, _ := c.dest.Stream(block); sn < len(block) {
			clear(block[sn:])
		}
		c.frames.Add(int64(len(block)))
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (c *Context) Err() error {
	return nil
}

// Close stops rendering permanently
func (c *Context) Close() {
	c.mu.Lock()
	c.closed = true
	c.dest = nil
	c.mu.Unlock()
}

// Closed reports whether Close has been called
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
