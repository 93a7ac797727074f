package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
)

var (
	ErrDuplicate  = errors.New("service already registered")
	ErrUnresolved = errors.New("depends on unregistered service")
	ErrCycle      = errors.New("circular dependency between services")
)

// Hub owns registered services and drives their lifecycle in dependency order
type Hub struct {
	mu       sync.RWMutex
	log      *slog.Logger
	services map[string]Service
	order    []string // Dependencies first, nil until resolved
	started  []string // Rolled back in reverse on failure or stop
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithHubLogger reports lifecycle steps to l
func WithHubLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHub creates an empty hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		services: make(map[string]Service),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds svc; its order is resolved on the next InitAll
func (h *Hub) Register(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := svc.Name()
	if _, dup := h.services[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	h.services[name] = svc
	h.order = nil
	return nil
}

// Get returns the service registered under name
func (h *Hub) Get(name string) (Service, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	svc, ok := h.services[name]
	return svc, ok
}

// MustGet returns the service under name as T, panicking when absent or of another type
func MustGet[T any](h *Hub, name string) T {
	svc, ok := h.Get(name)
	if !ok {
		panic(fmt.Sprintf("service not found: %s", name))
	}
	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("service %s: type mismatch, got %T", name, svc))
	}
	return typed
}

// InitAll resolves the order and initializes each service with args[name]
// A failed Init stops the services initialized before it
func (h *Hub) InitAll(args map[string][]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.order == nil {
		order, err := h.resolve()
		if err != nil {
			return err
		}
		h.order = order
	}

	for i, name := range h.order {
		if err := h.services[name].Init(args[name]...); err != nil {
			h.rollback(h.order[:i])
			return fmt.Errorf("service %s init failed: %w", name, err)
		}
		h.log.Debug("service initialized", "service", name)
	}
	return nil
}

// StartAll starts services in order, stopping the started ones if any fails
func (h *Hub) StartAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.started = h.started[:0]
	for _, name := range h.order {
		if err := h.services[name].Start(); err != nil {
			h.rollback(h.started)
			h.started = nil
			return fmt.Errorf("service %s start failed: %w", name, err)
		}
		h.started = append(h.started, name)
		h.log.Debug("service started", "service", name)
	}
	return nil
}

// StopAll stops started services in reverse order and joins their errors
func (h *Hub) StopAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for _, name := range slices.Backward(h.started) {
		if err := h.services[name].Stop(); err != nil {
			errs = append(errs, fmt.Errorf("service %s stop failed: %w", name, err))
		}
	}
	h.started = nil
	return errors.Join(errs...)
}

// ContributeAll collects resources from contributors in init order
func (h *Hub) ContributeAll(publish ResourcePublisher) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, name := range h.order {
		if c, ok := h.services[name].(ResourceContributor); ok {
			c.Contribute(publish)
		}
	}
}

// rollback stops names in reverse; errors are logged since the caller already fails
func (h *Hub) rollback(names []string) {
	for _, name := range slices.Backward(names) {
		if err := h.services[name].Stop(); err != nil {
			h.log.Warn("rollback stop failed", "service", name, "error", err)
		}
	}
}

// resolve orders services with Kahn's algorithm, breaking ties by name
func (h *Hub) resolve() ([]string, error) {
	pending := make(map[string]int, len(h.services))
	dependents := make(map[string][]string)

	for name := range h.services {
		pending[name] = 0
	}
	for name, svc := range h.services {
		for _, dep := range svc.Dependencies() {
			if _, ok := h.services[dep]; !ok {
				return nil, fmt.Errorf("service %s %w: %s", name, ErrUnresolved, dep)
			}
			pending[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, n := range pending {
		if n == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(h.services))
	for len(ready) > 0 {
		slices.Sort(ready)
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		for _, d := range dependents[name] {
			if pending[d]--; pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) != len(h.services) {
		return nil, ErrCycle
	}
	return order, nil
}
