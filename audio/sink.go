package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
)

// Sink pulls rendered audio from a streamer and delivers it to an output device
type Sink interface {
	// Start begins pulling from src; it returns once the device is open
	Start(src beep.Streamer) error
	// Close stops pulling and releases the device; safe to call more than once
	Close() error
	// Name identifies the sink in logs
	Name() string
}

// SinkFactory opens a sink for a config
type SinkFactory func(cfg *Config) (Sink, error)

// OpenSink creates the sink named by cfg.Sink
// Auto tries the speaker first, then a pipe backend, and reports both failures
func OpenSink(cfg *Config) (Sink, error) {
	switch cfg.Sink {
	case SinkSpeaker:
		return newSpeakerSink(cfg), nil
	case SinkPipe:
		return newPipeSink(cfg)
	case SinkNull:
		return NewNullSink(cfg.SampleRate, cfg.BufferSize), nil
	case SinkAuto, "":
		return &autoSink{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, cfg.Sink)
	}
}

// autoSink resolves to the first sink that starts
type autoSink struct {
	cfg    *Config
	active Sink
}

func (s *autoSink) Start(src beep.Streamer) error {
	speakerSink := newSpeakerSink(s.cfg)
	speakerErr := speakerSink.Start(src)
	if speakerErr == nil {
		s.active = speakerSink
		return nil
	}

	pipe, err := newPipeSink(s.cfg)
	if err == nil {
		if err = pipe.Start(src); err == nil {
			s.active = pipe
			return nil
		}
	}
	return errors.Join(fmt.Errorf("speaker: %w", speakerErr), fmt.Errorf("pipe: %w", err))
}

func (s *autoSink) Close() error {
	if s.active == nil {
		return nil
	}
	return s.active.Close()
}

// Errors forwards the pipe's failure channel; a speaker never reports, so its channel is closed
func (s *autoSink) Errors() <-chan error {
	if es, ok := s.active.(interface{ Errors() <-chan error }); ok {
		return es.Errors()
	}
	closed := make(chan error)
	close(closed)
	return closed
}

func (s *autoSink) Name() string {
	if s.active == nil {
		return string(SinkAuto)
	}
	return s.active.Name()
}

// NullSink pulls audio in real time and discards it
// It keeps the render clock advancing on hosts with no output device
type NullSink struct {
	rate   beep.SampleRate
	period time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	stopped  atomic.Bool
	wg       sync.WaitGroup
	pulled   atomic.Int64
}

// NewNullSink creates a headless sink pulling one period of frames per tick
func NewNullSink(rate beep.SampleRate, period time.Duration) *NullSink {
	return &NullSink{
		rate:     rate,
		period:   period,
		stopChan: make(chan struct{}),
	}
}

func (s *NullSink) Start(src beep.Streamer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped.Load() {
		return ErrPipeClosed
	}

	s.wg.Add(1)
	go s.loop(src)
	return nil
}

func (s *NullSink) loop(src beep.Streamer) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	buf := make([][2]float64, s.rate.N(s.period))
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			n, _ := src.Stream(buf)
			s.pulled.Add(int64(n))
		}
	}
}

func (s *NullSink) Close() error {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *NullSink) Name() string {
	return string(SinkNull)
}

// Pulled returns the frames consumed so far
func (s *NullSink) Pulled() int64 {
	return s.pulled.Load()
}
