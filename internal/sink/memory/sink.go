// Package memory stores artifacts in-memory for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Sink stores artifacts in-memory and returns pseudo URIs.
type Sink struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates a new in-memory sink.
func New() *Sink {
	return &Sink{data: make(map[string][]byte)}
}

// Put records the content and returns a memory:// URI.
func (s *Sink) Put(_ context.Context, name string, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = append([]byte(nil), data...)
	return fmt.Sprintf("memory://%s", name), nil
}

// Bytes returns the stored content for name, if any.
func (s *Sink) Bytes(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}
