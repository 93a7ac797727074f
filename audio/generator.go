package audio

import (
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"
)

// floatBuffer is mono float64 samples at unity gain
type floatBuffer []float64

// NoiseBuffer is an immutable looping mono noise buffer for one color
type NoiseBuffer struct {
	color   NoiseColor
	samples floatBuffer
}

// Color returns the buffer's noise color
func (b *NoiseBuffer) Color() NoiseColor {
	return b.color
}

// Len returns the buffer length in samples
func (b *NoiseBuffer) Len() int {
	return len(b.samples)
}

// Samples returns a copy of the buffer content
func (b *NoiseBuffer) Samples() []float64 {
	out := make([]float64, len(b.samples))
	copy(out, b.samples)
	return out
}

// Duration returns the loop length at rate
func (b *NoiseBuffer) Duration(rate beep.SampleRate) time.Duration {
	return rate.D(len(b.samples))
}

// whiteSample draws a uniform sample in [-1, 1)
func whiteSample(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

// generateWhite fills n independent uniform samples
func generateWhite(rng *rand.Rand, n int) floatBuffer {
	buf := make(floatBuffer, n)
	for i := range buf {
		buf[i] = whiteSample(rng)
	}
	return buf
}

// generatePink shapes white noise toward 1/f with six leaky integrators and a direct term
// b6 is written after the sum, so it enters the next sample one step late
func generatePink(rng *rand.Rand, n int) floatBuffer {
	buf := make(floatBuffer, n)
	var b0, b1, b2, b3, b4, b5, b6 float64

	for i := range buf {
		w := whiteSample(rng)
		b0 = 0.99886*b0 + w*0.0555179
		b1 = 0.99332*b1 + w*0.0750759
		b2 = 0.96900*b2 + w*0.1538520
		b3 = 0.86650*b3 + w*0.3104856
		b4 = 0.55000*b4 + w*0.5329522
		b5 = -0.7616*b5 - w*0.0168980
		buf[i] = (b0 + b1 + b2 + b3 + b4 + b5 + b6 + w*0.5362) * 0.11
		b6 = w * 0.115926
	}
	return buf
}

// generateBrown integrates white noise with a leak toward zero (1/f^2)
func generateBrown(rng *rand.Rand, n int) floatBuffer {
	buf := make(floatBuffer, n)
	last := 0.0

	for i := range buf {
		w := whiteSample(rng)
		last = (last + 0.02*w) / 1.02
		buf[i] = last * 3.5 // Restore amplitude lost to the leak
	}
	return buf
}

// generateNoise dispatches to the color generator
func generateNoise(color NoiseColor, rng *rand.Rand, n int) floatBuffer {
	switch color {
	case NoiseWhite:
		return generateWhite(rng, n)
	case NoisePink:
		return generatePink(rng, n)
	case NoiseBrown:
		return generateBrown(rng, n)
	default:
		return nil
	}
}
