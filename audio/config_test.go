package audio

import (
	"testing"
	"time"

	"github.com/lixenwraith/quietear/parameter"
)

// TestDefaultConfig verifies default configuration
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SampleRate != parameter.AudioSampleRate {
		t.Errorf("Expected sample rate %d, got %d", parameter.AudioSampleRate, cfg.SampleRate)
	}
	if cfg.Sink != SinkAuto {
		t.Errorf("Expected auto sink, got %q", cfg.Sink)
	}
	if cfg.Volume != parameter.DefaultVolume {
		t.Errorf("Expected volume %v, got %v", parameter.DefaultVolume, cfg.Volume)
	}
	if cfg.BufferSize != parameter.AudioBufferDuration {
		t.Errorf("Expected buffer %v, got %v", parameter.AudioBufferDuration, cfg.BufferSize)
	}
}

// TestLoadConfigFromEnv verifies environment overrides
func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("QUIETEAR_SAMPLE_RATE", "48000")
	t.Setenv("QUIETEAR_SINK", " NULL ")
	t.Setenv("QUIETEAR_VOLUME", "20")
	t.Setenv("QUIETEAR_BUFFER_MS", "40")
	t.Setenv("QUIETEAR_PIPE_BACKEND", "ALSA ")

	cfg := LoadConfig()
	if cfg.SampleRate != 48000 {
		t.Errorf("Expected 48000, got %d", cfg.SampleRate)
	}
	if cfg.Sink != SinkNull {
		t.Errorf("Expected null sink, got %q", cfg.Sink)
	}
	if cfg.Volume != 0.2 {
		t.Errorf("Expected volume 0.2, got %v", cfg.Volume)
	}
	if cfg.BufferSize != 40*time.Millisecond {
		t.Errorf("Expected 40ms, got %v", cfg.BufferSize)
	}
	if cfg.Backend != "alsa" {
		t.Errorf("Expected backend alsa, got %q", cfg.Backend)
	}
}

// TestLoadConfigClampsAndIgnoresInvalid verifies bad values fall back and loud values clamp
func TestLoadConfigClampsAndIgnoresInvalid(t *testing.T) {
	t.Setenv("QUIETEAR_SAMPLE_RATE", "-1")
	t.Setenv("QUIETEAR_VOLUME", "90")
	t.Setenv("QUIETEAR_BUFFER_MS", "abc")

	cfg := LoadConfig()
	if cfg.SampleRate != parameter.AudioSampleRate {
		t.Errorf("Expected default rate, got %d", cfg.SampleRate)
	}
	if cfg.Volume != parameter.MaxSafeGain {
		t.Errorf("Expected volume clamped to %v, got %v", parameter.MaxSafeGain, cfg.Volume)
	}
	if cfg.BufferSize != parameter.AudioBufferDuration {
		t.Errorf("Expected default buffer, got %v", cfg.BufferSize)
	}
}
