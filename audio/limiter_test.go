package audio

import (
	"math"
	"testing"

	"github.com/lixenwraith/quietear/parameter"
)

// TestLimiterPassesQuietSignal verifies signals well under the knee are untouched
func TestLimiterPassesQuietSignal(t *testing.T) {
	l := NewLimiter(testRate)
	buf := make([][2]float64, 4410)
	for i := range buf {
		v := 0.3 * math.Sin(2*math.Pi*440*float64(i)/44100)
		buf[i] = [2]float64{v, v}
	}
	ref := append([][2]float64(nil), buf...)

	l.Process(buf)
	for i := range buf {
		if buf[i] != ref[i] {
			t.Fatalf("Sample %d changed: %v -> %v", i, ref[i], buf[i])
		}
	}
	if l.Reduction() != 0 {
		t.Errorf("Expected no reduction, got %v dB", l.Reduction())
	}
}

// TestLimiterClampsLoudSignal verifies sustained overs are pulled near the threshold
func TestLimiterClampsLoudSignal(t *testing.T) {
	l := NewLimiter(testRate)
	buf := make([][2]float64, 44100)
	for i := range buf {
		buf[i] = [2]float64{2, -2}
	}
	l.Process(buf)

	// Past the attack the output sits close to threshold plus (over / ratio)
	over := 20*math.Log10(2) - parameter.LimiterThresholdDB
	wantDB := parameter.LimiterThresholdDB + over/parameter.LimiterRatio
	gotDB := 20 * math.Log10(math.Abs(buf[len(buf)-1][0]))
	if math.Abs(gotDB-wantDB) > 0.1 {
		t.Errorf("Expected output near %.2f dB, got %.2f dB", wantDB, gotDB)
	}
	if buf[len(buf)-1][0] != -buf[len(buf)-1][1] {
		t.Error("Expected stereo-linked gain")
	}

	l.Reset()
	if l.Reduction() != 0 {
		t.Errorf("Expected reset envelope, got %v", l.Reduction())
	}
}

// TestLimiterNoMakeupGain verifies the limiter never raises a sample
func TestLimiterNoMakeupGain(t *testing.T) {
	l := NewLimiter(testRate)
	buf := make([][2]float64, 8820)
	for i := range buf {
		v := 1.5 * math.Sin(2*math.Pi*100*float64(i)/44100)
		buf[i] = [2]float64{v, v}
	}
	ref := append([][2]float64(nil), buf...)
	l.Process(buf)

	for i := range buf {
		if math.Abs(buf[i][0]) > math.Abs(ref[i][0])+1e-12 {
			t.Fatalf("Sample %d raised: %v -> %v", i, ref[i][0], buf[i][0])
		}
	}
}

// TestLimiterKnee verifies the static curve is continuous across the knee
func TestLimiterKnee(t *testing.T) {
	l := NewLimiter(testRate)
	lo := parameter.LimiterThresholdDB - parameter.LimiterKneeDB/2
	hi := parameter.LimiterThresholdDB + parameter.LimiterKneeDB/2

	if r := l.staticReduction(lo - 1); r != 0 {
		t.Errorf("Expected no reduction below the knee, got %v", r)
	}
	if r := l.staticReduction(lo); math.Abs(r) > 1e-12 {
		t.Errorf("Expected 0 at knee start, got %v", r)
	}
	slope := 1 - 1/parameter.LimiterRatio
	if r := l.staticReduction(hi); math.Abs(r-slope*parameter.LimiterKneeDB/2) > 1e-12 {
		t.Errorf("Expected %v at knee end, got %v", slope*parameter.LimiterKneeDB/2, r)
	}
}
