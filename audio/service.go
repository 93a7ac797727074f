package audio

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/quietear/service"
)

// shutdownTimeout bounds the fade-out wait on service stop
const shutdownTimeout = 2 * time.Second

// Service wraps Engine as a hub-managed service
type Service struct {
	config  *Config
	opts    []Option
	engine  *Engine
	stopped atomic.Bool
}

// NewService creates an audio service with env-loaded config
func NewService() *Service {
	return &Service{
		config: LoadConfig(),
	}
}

// Name implements service.Service
func (s *Service) Name() string {
	return "audio"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return nil
}

// Init implements service.Service
// args[0]: *Config (optional, overrides env config)
// args[1:]: Option values applied to the engine
func (s *Service) Init(args ...any) error {
	for i, arg := range args {
		switch v := arg.(type) {
		case *Config:
			if i == 0 && v != nil {
				s.config = v
			}
		case Option:
			s.opts = append(s.opts, v)
		}
	}

	engine, err := NewEngine(s.config, s.opts...)
	if err != nil {
		return err
	}
	s.engine = engine
	return nil
}

// Start implements service.Service
// The output device opens on the first play, so nothing runs here
func (s *Service) Start() error {
	if s.engine == nil {
		return errors.New("audio service not initialized")
	}
	return nil
}

// Stop implements service.Service
func (s *Service) Stop() error {
	if s.engine == nil || !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.engine.Destroy(ctx)
}

// Contribute implements service.ResourceContributor
func (s *Service) Contribute(publish service.ResourcePublisher) {
	if s.engine != nil {
		publish(s.engine)
	}
}

// Engine returns the underlying Engine (nil before Init)
func (s *Service) Engine() *Engine {
	return s.engine
}

// Analyser implements the scope source interface
func (s *Service) Analyser() *Analyser {
	if s.engine == nil {
		return nil
	}
	return s.engine.Analyser()
}
