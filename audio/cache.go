package audio

import (
	"math/rand/v2"
	"sync"
)

// noiseCache stores one generated NoiseBuffer per color for the engine lifetime
type noiseCache struct {
	mu     sync.RWMutex
	rng    *rand.Rand // Guarded by the write lock
	length int
	store  [noiseColorCount]*NoiseBuffer
	closed bool
}

func newNoiseCache(length int, rng *rand.Rand) *noiseCache {
	return &noiseCache{
		rng:    rng,
		length: length,
	}
}

// get returns the cached buffer or generates it on first demand
// Returns nil for unknown colors and after release
func (c *noiseCache) get(color NoiseColor) *NoiseBuffer {
	if color < 0 || color >= noiseColorCount {
		return nil
	}

	c.mu.RLock()
	if buf := c.store[color]; buf != nil {
		c.mu.RUnlock()
		return buf
	}
	c.mu.RUnlock()

	// Generate and cache
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if buf := c.store[color]; buf != nil || c.closed {
		return buf
	}

	buf := &NoiseBuffer{
		color:   color,
		samples: generateNoise(color, c.rng, c.length),
	}
	c.store[color] = buf
	return buf
}

// preload generates every color ahead of the first play
func (c *noiseCache) preload() {
	for color := NoiseColor(0); color < noiseColorCount; color++ {
		c.get(color)
	}
}

// release drops all buffers and stops further generation
func (c *noiseCache) release() {
	c.mu.Lock()
	c.store = [noiseColorCount]*NoiseBuffer{}
	c.closed = true
	c.mu.Unlock()
}
