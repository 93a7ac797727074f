package audio

import (
	"math"

	"github.com/lixenwraith/quietear/parameter"
)

// equalization holds the loudness scalar per waveform or noise color identifier
var equalization = map[string]float64{
	"sine":     1.0,
	"square":   0.15,
	"sawtooth": 0.2,
	"triangle": 0.5,
	"white":    0.15,
	"pink":     0.5,
	"brown":    1.0,
}

// ClampGain bounds v to [0, MaxSafeGain], NaN maps to 0
func ClampGain(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > parameter.MaxSafeGain {
		return parameter.MaxSafeGain
	}
	return v
}

// ClampFrequency bounds f to [MinFreq, MaxFreq], NaN maps to MinFreq
func ClampFrequency(f float64) float64 {
	if math.IsNaN(f) || f < parameter.MinFreq {
		return parameter.MinFreq
	}
	if f > parameter.MaxFreq {
		return parameter.MaxFreq
	}
	return f
}

// EqualizationScalar returns the loudness scalar for an identifier, 1.0 when unknown
func EqualizationScalar(id string) float64 {
	if v, ok := equalization[id]; ok {
		return v
	}
	return 1.0
}

// SafeTarget is the master gain a ramp may aim for at volume v for identifier id
func SafeTarget(v float64, id string) float64 {
	return ClampGain(v) * EqualizationScalar(id)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
