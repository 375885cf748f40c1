package memstore

import (
	"context"
	"sort"
	"sync"
)

// Sink keeps generated modules in memory.
type Sink struct {
	mu       sync.RWMutex
	modules  map[string]string
	writes   []string
	manifest string
}

func NewSink() *Sink {
	return &Sink{
		modules: make(map[string]string),
	}
}

func (s *Sink) WriteArtifact(ctx context.Context, module, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[module] = content
	s.writes = append(s.writes, module)
	return nil
}

func (s *Sink) WriteManifest(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = content
	return nil
}

func (s *Sink) Artifact(module string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.modules[module]
	return content, ok
}

func (s *Sink) Manifest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest
}

// Modules returns the stored module names, sorted.
func (s *Sink) Modules() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.modules))
	for name := range s.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Writes returns how many artifact writes were made.
func (s *Sink) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.writes)
}
