package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/lixenwraith/quietear/audio"
)

// Player is the part of the engine a preset drives
type Player interface {
	SetVolume(v float64)
	PlayTone(ctx context.Context, freq float64, wave audio.Waveform) error
	PlayNoise(ctx context.Context, color audio.NoiseColor, opts ...audio.NoiseOption) error
	PlayNotchedNoise(ctx context.Context, freq float64, opts ...audio.NoiseOption) error
	PlayCoordinatedReset(ctx context.Context, center float64, tempo time.Duration) error
	PlayAmplitudeModulation(ctx context.Context, freq, rate, depth float64) error
	PlayBinaural(ctx context.Context, base, beat float64) error
	PlayResidualInhibition(ctx context.Context, freq float64, d time.Duration, onFinish func()) error
	PlayPhaseCancellation(ctx context.Context, freq float64) error
}

// ParsedMode returns the stored mode
func (s *Settings) ParsedMode() (audio.Mode, error) {
	m, err := audio.ParseMode(s.Mode)
	if err != nil {
		return audio.ModeNone, fmt.Errorf("mode %q: %w", s.Mode, err)
	}
	return m, nil
}

// Start applies the volume and plays the stored mode with its stored parameters
// onFinish is only used by residual inhibition
func (s *Settings) Start(ctx context.Context, p Player, onFinish func()) error {
	mode, err := s.ParsedMode()
	if err != nil {
		return err
	}

	p.SetVolume(s.Volume)

	switch mode {
	case audio.ModeTone:
		wave, err := audio.ParseWaveform(s.Waveform)
		if err != nil {
			return fmt.Errorf("waveform %q: %w", s.Waveform, err)
		}
		return p.PlayTone(ctx, s.Frequency, wave)

	case audio.ModeNoise:
		color, err := audio.ParseNoiseColor(s.NoiseColor)
		if err != nil {
			return fmt.Errorf("noise color %q: %w", s.NoiseColor, err)
		}
		var opts []audio.NoiseOption
		if s.Bandpass {
			opts = append(opts, audio.WithCenter(s.Frequency), audio.WithQ(s.BandpassQ))
		}
		return p.PlayNoise(ctx, color, opts...)

	case audio.ModeNotchedNoise:
		color, err := audio.ParseNoiseColor(s.NoiseColor)
		if err != nil {
			return fmt.Errorf("noise color %q: %w", s.NoiseColor, err)
		}
		return p.PlayNotchedNoise(ctx, s.Frequency, audio.WithQ(s.NotchQ), audio.WithColor(color))

	case audio.ModeCoordinatedReset:
		return p.PlayCoordinatedReset(ctx, s.Frequency, time.Duration(s.TempoMs)*time.Millisecond)

	case audio.ModeAmplitudeModulation:
		return p.PlayAmplitudeModulation(ctx, s.Frequency, s.ModRate, s.ModDepth)

	case audio.ModeBinaural:
		return p.PlayBinaural(ctx, s.Frequency, s.BeatFrequency)

	case audio.ModeResidualInhibition:
		return p.PlayResidualInhibition(ctx, s.Frequency, time.Duration(s.InhibitionSec)*time.Second, onFinish)

	default:
		return p.PlayPhaseCancellation(ctx, s.Frequency)
	}
}
