package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framehaus/siteforge/internal/engine"
)

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// MemStore is an in-memory Store for tests and ephemeral runs. It is safe
// for concurrent use and hands out copies, never internal state.
type MemStore struct {
	mu        sync.RWMutex
	artifacts map[string]*Artifact
	order     []string // refs in insertion order
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{artifacts: make(map[string]*Artifact)}
}

// Save encodes value as JSON and stores it under a fresh reference.
func (s *MemStore) Save(_ context.Context, key string, class engine.PriorityClass, value any) (string, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("artifact: encode payload for %s: %w", key, err)
	}

	art := &Artifact{
		ID:        uuid.New().String(),
		Key:       key,
		Class:     class,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[art.ID] = art
	s.order = append(s.order, art.ID)
	return art.ID, nil
}

// Get returns a copy of the artifact stored under ref.
func (s *MemStore) Get(_ context.Context, ref string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	art, ok := s.artifacts[ref]
	if !ok {
		return nil, fmt.Errorf("artifact: get %s: %w", ref, ErrNotFound)
	}
	cp := copyArtifact(art)
	return &cp, nil
}

// ListByKey returns copies of every artifact saved for key, oldest first.
func (s *MemStore) ListByKey(_ context.Context, key string) ([]Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Artifact
	for _, ref := range s.order {
		if art := s.artifacts[ref]; art.Key == key {
			out = append(out, copyArtifact(art))
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error { return nil }

// copyArtifact returns a deep copy so callers cannot mutate stored state.
func copyArtifact(a *Artifact) Artifact {
	cp := *a
	cp.Payload = append([]byte(nil), a.Payload...)
	return cp
}
