package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/quietear/parameter"
)

var ErrSpeakerBusy = errors.New("speaker already in use by another engine")

// The beep speaker can be initialized once per process and never reopened,
// so the device stays up after the first Init and sinks hand it over by clearing
var (
	speakerMu    sync.Mutex
	speakerRate  beep.SampleRate // Zero until the device is opened
	speakerOwner *speakerSink

	// Swapped in tests
	speakerInit  = speaker.Init
	speakerPlay  = func(s beep.Streamer) { speaker.Play(s) }
	speakerClear = speaker.Clear
)

// speakerSink plays through the beep speaker (oto underneath)
// Only one speakerSink can own the device at a time
type speakerSink struct {
	rate beep.SampleRate
}

func newSpeakerSink(cfg *Config) *speakerSink {
	return &speakerSink{rate: cfg.SampleRate}
}

// Start opens the device on first use and begins playback of src
func (s *speakerSink) Start(src beep.Streamer) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerOwner == s {
		return nil
	}
	if speakerOwner != nil {
		return ErrSpeakerBusy
	}

	switch speakerRate {
	case 0:
		if err := speakerInit(s.rate, s.rate.N(parameter.SpeakerBufferDuration)); err != nil {
			return fmt.Errorf("speaker init: %w", err)
		}
		speakerRate = s.rate
	case s.rate:
	default:
		return fmt.Errorf("speaker opened at %d Hz, cannot play at %d Hz", speakerRate, s.rate)
	}

	speakerPlay(src)
	speakerOwner = s
	return nil
}

// Close removes this sink's stream and leaves the device open for the next owner
func (s *speakerSink) Close() error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerOwner != s {
		return nil
	}
	speakerClear()
	speakerOwner = nil
	return nil
}

func (s *speakerSink) Name() string {
	return string(SinkSpeaker)
}
