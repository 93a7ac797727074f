package audio

import (
	"errors"
	"testing"
)

// TestParseWaveform verifies names and aliases
func TestParseWaveform(t *testing.T) {
	tests := map[string]Waveform{
		"sine": WaveSine, "Square": WaveSquare, "saw": WaveSawtooth,
		"sawtooth": WaveSawtooth, " triangle ": WaveTriangle,
	}
	for name, want := range tests {
		got, err := ParseWaveform(name)
		if err != nil || got != want {
			t.Errorf("ParseWaveform(%q): expected %s, got %s (%v)", name, want, got, err)
		}
	}
	if _, err := ParseWaveform("pulse"); !errors.Is(err, ErrUnknownWaveform) {
		t.Errorf("Expected ErrUnknownWaveform, got %v", err)
	}
}

// TestParseNoiseColor verifies color names
func TestParseNoiseColor(t *testing.T) {
	for c := NoiseWhite; c < noiseColorCount; c++ {
		got, err := ParseNoiseColor(c.String())
		if err != nil || got != c {
			t.Errorf("ParseNoiseColor(%q): expected %s, got %s (%v)", c.String(), c, got, err)
		}
	}
	if _, err := ParseNoiseColor("violet"); !errors.Is(err, ErrUnknownNoiseColor) {
		t.Errorf("Expected ErrUnknownNoiseColor, got %v", err)
	}
}

// TestEnumStrings verifies names and the out-of-range fallback
func TestEnumStrings(t *testing.T) {
	if ModeCoordinatedReset.String() != "coordinated-reset" {
		t.Errorf("Expected coordinated-reset, got %s", ModeCoordinatedReset)
	}
	if StateStopping.String() != "stopping" {
		t.Errorf("Expected stopping, got %s", StateStopping)
	}
	if Mode(42).String() != "unknown" || State(-1).String() != "unknown" || Waveform(9).String() != "unknown" {
		t.Error("Expected unknown for out-of-range values")
	}
}

// TestParseMode verifies every playable mode round-trips and none is rejected
func TestParseMode(t *testing.T) {
	modes := PlayableModes()
	if len(modes) != 8 {
		t.Fatalf("Expected 8 playable modes, got %d", len(modes))
	}
	for _, m := range modes {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q): expected %s, got %s (%v)", m.String(), m, got, err)
		}
	}
	for _, name := range []string{"none", "", "karaoke"} {
		if _, err := ParseMode(name); !errors.Is(err, ErrUnknownMode) {
			t.Errorf("ParseMode(%q): expected ErrUnknownMode, got %v", name, err)
		}
	}
}
