package scope

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"
)

// DefaultAddr is the listen address when none is given
const DefaultAddr = "127.0.0.1:8765"

// Service runs a Server under the service hub
type Service struct {
	addr    string
	src     Source
	opts    []Option
	server  *Server
	ln      net.Listener
	stopped atomic.Bool
}

// NewService creates a scope service
func NewService() *Service {
	return &Service{addr: DefaultAddr}
}

// Name implements service.Service
func (s *Service) Name() string {
	return "scope"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return []string{"audio"}
}

// Init implements service.Service
// Accepts a listen address string, a Source and Option values in any order
func (s *Service) Init(args ...any) error {
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			if v != "" {
				s.addr = v
			}
		case Source:
			s.src = v
		case Option:
			s.opts = append(s.opts, v)
		}
	}
	if s.src == nil {
		return errors.New("scope service requires an analyser source")
	}
	s.server = NewServer(s.src, s.opts...)
	return nil
}

// Start implements service.Service
func (s *Service) Start() error {
	if s.server == nil {
		return errors.New("scope service not initialized")
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("scope listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.server.Serve(ln)
	s.server.log.Info("scope listening", "addr", ln.Addr().String(), "path", DefaultPath)
	return nil
}

// Stop implements service.Service
func (s *Service) Stop() error {
	if s.server == nil || !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	return s.server.Close()
}

// Addr returns the bound address once started
func (s *Service) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}
