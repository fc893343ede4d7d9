package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/similarity"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
type VectorStore struct {
	mu      sync.RWMutex
	records map[string]domain.EmbeddingRecord
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records: make(map[string]domain.EmbeddingRecord),
	}
}

// Upsert stores copies of the records. The batch is validated before any
// record is written.
func (s *VectorStore) Upsert(_ context.Context, records []domain.EmbeddingRecord) error {
	for _, r := range records {
		if len(r.Vector) == 0 {
			return fmt.Errorf("%w: record %s has no vector", domain.ErrInvalidInput, r.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.Vector = slices.Clone(r.Vector)
		r.Metadata = maps.Clone(r.Metadata)
		s.records[r.ID] = r
	}
	return nil
}

// Query returns the topK records by cosine similarity.
func (s *VectorStore) Query(_ context.Context, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	top := similarity.NewTopK(topK)
	for _, r := range s.records {
		if len(r.Vector) != len(vector) {
			return nil, fmt.Errorf("%w: record %s has %d dimensions, query has %d",
				domain.ErrInvalidInput, r.ID, len(r.Vector), len(vector))
		}
		top.Push(domain.RetrievedChunk{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: maps.Clone(r.Metadata),
			Score:    similarity.Cosine(vector, r.Vector),
		})
	}
	return top.Results(), nil
}

// DeleteSource removes every record of the source.
func (s *VectorStore) DeleteSource(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.records {
		if r.Metadata[domain.MetaSourceID] == sourceID {
			delete(s.records, id)
		}
	}
	return nil
}

// Count returns the number of stored records.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Get returns a stored record by id.
func (s *VectorStore) Get(id string) (domain.EmbeddingRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	return r, ok
}

// IDs returns all record ids, sorted.
func (s *VectorStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.records))
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}
