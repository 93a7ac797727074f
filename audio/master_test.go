package audio

import (
	"math"
	"testing"

	"github.com/lixenwraith/quietear/parameter"
)

// constStream emits a fixed stereo frame
type constStream [2]float64

func (c constStream) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i] = c
	}
	return len(samples), true
}

func (c constStream) Err() error { return nil }

// TestMasterChainDisconnectedIsSilent verifies an empty chain renders zeros
func TestMasterChainDisconnectedIsSilent(t *testing.T) {
	ctx := NewContext(testRate)
	m := newMasterChain(ctx)
	m.Gain().SetValue(parameter.MaxSafeGain)

	out := render(ctx, m, 256)
	if rms(out, 0) != 0 || rms(out, 1) != 0 {
		t.Error("Expected silence with no input")
	}
	m.Disconnect()
	if m.Connected() {
		t.Error("Expected disconnected chain")
	}
}

// TestMasterChainAppliesGain verifies the master gain scales the input and tracks its automation
func TestMasterChainAppliesGain(t *testing.T) {
	ctx := NewContext(testRate)
	m := newMasterChain(ctx)
	m.Connect(constStream{0.5, -0.5})
	m.Gain().SetValue(0.4)

	out := render(ctx, m, 256)
	for i, s := range out {
		if math.Abs(s[0]-0.2) > 1e-12 || math.Abs(s[1]+0.2) > 1e-12 {
			t.Fatalf("Frame %d: expected (0.2, -0.2), got %v", i, s)
		}
	}

	// Ramp down to zero over the next block
	now := ctx.CurrentTime()
	m.Gain().SetValueAtTime(0.4, now)
	m.Gain().LinearRampToValueAtTime(0, now+256.0/44100)
	out = render(ctx, m, 512)
	if math.Abs(out[0][0]-0.2) > 1e-3 {
		t.Errorf("Expected ramp to start at 0.2, got %v", out[0][0])
	}
	if out[300][0] != 0 {
		t.Errorf("Expected silence after the ramp, got %v", out[300][0])
	}
}

// TestMasterChainGainCeiling verifies the gain param refuses values above the safe limit
func TestMasterChainGainCeiling(t *testing.T) {
	ctx := NewContext(testRate)
	m := newMasterChain(ctx)
	m.Connect(constStream{1, 1})
	m.Gain().SetValue(5)

	out := render(ctx, m, 128)
	if out[0][0] > parameter.MaxSafeGain+1e-12 {
		t.Errorf("Expected output at most %v, got %v", parameter.MaxSafeGain, out[0][0])
	}
	if lo, hi := m.Gain().Range(); lo != 0 || hi != parameter.MaxSafeGain {
		t.Errorf("Expected range [0, %v], got [%v, %v]", parameter.MaxSafeGain, lo, hi)
	}
}

// TestMasterChainFeedsAnalyser verifies the tap sees post-gain output
func TestMasterChainFeedsAnalyser(t *testing.T) {
	ctx := NewContext(testRate)
	m := newMasterChain(ctx)
	m.Connect(constStream{0.5, 0.5})
	m.Gain().SetValue(0.2)
	render(ctx, m, parameter.AnalyserSize)

	data := make([]float32, 4)
	m.Analyser().TimeDomainData(data)
	for i, v := range data {
		if math.Abs(float64(v)-0.1) > 1e-6 {
			t.Errorf("Index %d: expected 0.1, got %v", i, v)
		}
	}
}
