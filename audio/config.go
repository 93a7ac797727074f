package audio

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/quietear/parameter"
)

// Config holds engine construction settings
type Config struct {
	SampleRate beep.SampleRate
	Sink       SinkType
	Volume     float64       // Initial volume, clamped to [0, MaxSafeGain]
	BufferSize time.Duration // Output pull period
	Backend    string        // Pipe player name, empty probes in order
}

// DefaultConfig returns the settings used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		SampleRate: beep.SampleRate(parameter.AudioSampleRate),
		Sink:       SinkAuto,
		Volume:     parameter.DefaultVolume,
		BufferSize: parameter.AudioBufferDuration,
	}
}

// LoadConfig loads engine configuration from environment variables
func LoadConfig() *Config {
	cfg := DefaultConfig()

	if rate := os.Getenv("QUIETEAR_SAMPLE_RATE"); rate != "" {
		if val, err := strconv.Atoi(rate); err == nil && val > 0 {
			cfg.SampleRate = beep.SampleRate(val)
		}
	}

	if sink := os.Getenv("QUIETEAR_SINK"); sink != "" {
		cfg.Sink = SinkType(strings.ToLower(strings.TrimSpace(sink)))
	}

	// Volume in percent (0-100 converted to 0.0-1.0), then clamped to the safe ceiling
	if volume := os.Getenv("QUIETEAR_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.Volume = ClampGain(float64(val) / 100.0)
		}
	}

	if ms := os.Getenv("QUIETEAR_BUFFER_MS"); ms != "" {
		if val, err := strconv.Atoi(ms); err == nil && val > 0 {
			cfg.BufferSize = time.Duration(val) * time.Millisecond
		}
	}

	if backend := os.Getenv("QUIETEAR_PIPE_BACKEND"); backend != "" {
		cfg.Backend = strings.ToLower(strings.TrimSpace(backend))
	}

	return cfg
}
