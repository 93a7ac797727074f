// Package status holds lock-free runtime metrics the engine publishes and front ends read
package status

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Set is a named collection of metrics of one kind
// Lookups lock; the returned pointer is read and written without locking
type Set[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
}

func newSet[T any]() *Set[T] {
	return &Set[T]{items: make(map[string]*T)}
}

// Get returns the metric for key, creating it on first use
func (s *Set[T]) Get(key string) *T {
	s.mu.RLock()
	if p, ok := s.items[key]; ok {
		s.mu.RUnlock()
		return p
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.items[key]; ok {
		return p
	}
	p := new(T)
	s.items[key] = p
	return p
}

// Keys returns the registered names in sorted order
func (s *Set[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Registry groups the metric sets of one engine
type Registry struct {
	Counters *Set[atomic.Int64]
	Flags    *Set[atomic.Bool]
	Gauges   *Set[Float]
	Labels   *Set[Text]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		Counters: newSet[atomic.Int64](),
		Flags:    newSet[atomic.Bool](),
		Gauges:   newSet[Float](),
		Labels:   newSet[Text](),
	}
}

// Snapshot copies every metric into a flat map, formatted for display
func (r *Registry) Snapshot() map[string]string {
	out := make(map[string]string)
	for _, k := range r.Counters.Keys() {
		out[k] = fmt.Sprint(r.Counters.Get(k).Load())
	}
	for _, k := range r.Flags.Keys() {
		out[k] = fmt.Sprint(r.Flags.Get(k).Load())
	}
	for _, k := range r.Gauges.Keys() {
		out[k] = fmt.Sprintf("%.2f", r.Gauges.Get(k).Get())
	}
	for _, k := range r.Labels.Keys() {
		out[k] = r.Labels.Get(k).Get()
	}
	return out
}
