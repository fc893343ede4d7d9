package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu      sync.RWMutex
	chunks  map[string][]string
	cleaned map[string]string
}

// NewChunkStore creates an empty in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks:  make(map[string][]string),
		cleaned: make(map[string]string),
	}
}

// Save replaces the chunks of a source.
func (s *ChunkStore) Save(_ context.Context, sourceID, cleaned string, chunks []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[sourceID] = slices.Clone(chunks)
	s.cleaned[sourceID] = cleaned
	return nil
}

// Load returns the chunks of a source.
func (s *ChunkStore) Load(_ context.Context, sourceID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(chunks), nil
}

// Cleaned returns the cleaned text saved for a source.
func (s *ChunkStore) Cleaned(sourceID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cleaned[sourceID]
}
