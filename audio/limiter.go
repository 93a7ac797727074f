package audio

import (
	"math"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/quietear/parameter"
)

const limiterFloorDB = -120.0

// Limiter is a stereo-linked feed-forward compressor with a soft knee
// It runs with no makeup gain, so it can only lower the level
type Limiter struct {
	thresholdDB float64
	kneeDB      float64
	ratio       float64
	attackCoef  float64
	releaseCoef float64

	reductionDB float64 // Smoothed gain reduction, >= 0
}

// NewLimiter creates the master limiter at rate
func NewLimiter(rate beep.SampleRate) *Limiter {
	return &Limiter{
		thresholdDB: parameter.LimiterThresholdDB,
		kneeDB:      parameter.LimiterKneeDB,
		ratio:       parameter.LimiterRatio,
		attackCoef:  timeCoefficient(parameter.LimiterAttack.Seconds(), rate),
		releaseCoef: timeCoefficient(parameter.LimiterRelease.Seconds(), rate),
	}
}

// timeCoefficient is the one-pole smoothing factor for a time constant in seconds
func timeCoefficient(sec float64, rate beep.SampleRate) float64 {
	if sec <= 0 {
		return 0
	}
	return math.Exp(-1 / (sec * float64(rate)))
}

func linearToDB(v float64) float64 {
	if v <= 0 {
		return limiterFloorDB
	}
	return math.Max(20*math.Log10(v), limiterFloorDB)
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// staticReduction is the gain reduction in dB the curve asks for at levelDB
func (l *Limiter) staticReduction(levelDB float64) float64 {
	over := levelDB - l.thresholdDB
	slope := 1 - 1/l.ratio

	switch {
	case 2*over < -l.kneeDB:
		return 0
	case l.kneeDB > 0 && 2*math.Abs(over) <= l.kneeDB:
		k := over + l.kneeDB/2
		return slope * k * k / (2 * l.kneeDB)
	default:
		return slope * over
	}
}

// Process limits samples in place
func (l *Limiter) Process(samples [][2]float64) {
	for i := range samples {
		peak := math.Max(math.Abs(samples[i][0]), math.Abs(samples[i][1]))
		target := l.staticReduction(linearToDB(peak))

		coef := l.releaseCoef
		if target > l.reductionDB {
			coef = l.attackCoef
		}
		l.reductionDB = coef*l.reductionDB + (1-coef)*target

		if l.reductionDB > 0 {
			g := dbToLinear(-l.reductionDB)
			samples[i][0] *= g
			samples[i][1] *= g
		}
	}
}

// Reduction returns the current gain reduction in dB
func (l *Limiter) Reduction() float64 {
	return l.reductionDB
}

// Reset clears the envelope
func (l *Limiter) Reset() {
	l.reductionDB = 0
}
