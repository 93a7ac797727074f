package audio

import (
	"math"
	"testing"
)

// TestAnalyserTimeDomainOrder verifies samples come back oldest first as channel averages
func TestAnalyserTimeDomainOrder(t *testing.T) {
	a := NewAnalyser(testRate, 8)

	in := make([][2]float64, 10)
	for i := range in {
		in[i] = [2]float64{float64(i), float64(i) + 1}
	}
	a.write(in)

	out := make([]float32, 8)
	if n := a.TimeDomainData(out); n != 8 {
		t.Fatalf("Expected 8 samples, got %d", n)
	}
	for i, v := range out {
		want := float32(i+2) + 0.5
		if v != want {
			t.Errorf("Index %d: expected %v, got %v", i, want, v)
		}
	}

	short := make([]float32, 3)
	if n := a.TimeDomainData(short); n != 3 || short[2] != 9.5 {
		t.Errorf("Expected newest 3 samples ending in 9.5, got %d %v", n, short)
	}
}

// TestAnalyserSpectrumPeak verifies a sine shows up in its bin
func TestAnalyserSpectrumPeak(t *testing.T) {
	const size = 2048
	a := NewAnalyser(testRate, size)

	// Pick a frequency centred on a bin
	bin := 93
	freq := a.BinFrequency(bin)
	in := make([][2]float64, size)
	for i := range in {
		v := math.Sin(2 * math.Pi * freq * float64(i) / float64(testRate))
		in[i] = [2]float64{v, v}
	}
	a.write(in)

	bins := make([]float64, size/2)
	// Several reads let the smoothing converge
	for i := 0; i < 40; i++ {
		a.FrequencyData(bins)
	}

	peak := 0
	for k := range bins {
		if bins[k] > bins[peak] {
			peak = k
		}
	}
	if peak != bin {
		t.Errorf("Expected peak at bin %d, got %d", bin, peak)
	}
	if bins[size/2-1] > bins[bin]-40 {
		t.Errorf("Expected far bins well below the peak, got %v vs %v", bins[size/2-1], bins[bin])
	}
}

// TestAnalyserSilence verifies silence reports the floor
func TestAnalyserSilence(t *testing.T) {
	a := NewAnalyser(testRate, 256)
	bins := make([]float64, 512)
	if n := a.FrequencyData(bins); n != 128 {
		t.Fatalf("Expected 128 bins, got %d", n)
	}
	for k := 0; k < 128; k++ {
		if bins[k] != -100 {
			t.Fatalf("Bin %d: expected floor, got %v", k, bins[k])
		}
	}
	if a.SampleRate() != testRate || a.Size() != 256 {
		t.Error("Expected accessors to report construction values")
	}
}
