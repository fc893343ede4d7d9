package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore writes <id>_chunks.json (an ordered array of strings) and
// <id>_cleaned.txt into a directory.
type ChunkStore struct {
	dir string
}

// NewChunkStore creates a chunk store rooted at dir.
func NewChunkStore(dir string) *ChunkStore {
	return &ChunkStore{dir: dir}
}

// Dir returns the directory chunk documents are written to.
func (s *ChunkStore) Dir() string {
	return s.dir
}

// checkID keeps source ids from naming files outside the directory.
func checkID(sourceID string) error {
	if sourceID == "" || strings.ContainsAny(sourceID, `/\`) || strings.Contains(sourceID, "..") {
		return fmt.Errorf("%w: source id %q", domain.ErrInvalidInput, sourceID)
	}
	return nil
}

func (s *ChunkStore) chunksPath(sourceID string) string {
	return filepath.Join(s.dir, sourceID+"_chunks.json")
}

func (s *ChunkStore) cleanedPath(sourceID string) string {
	return filepath.Join(s.dir, sourceID+"_cleaned.txt")
}

// Save replaces both files of the source.
func (s *ChunkStore) Save(_ context.Context, sourceID, cleaned string, chunks []string) error {
	if err := checkID(sourceID); err != nil {
		return err
	}
	if chunks == nil {
		chunks = []string{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	if err := writeFileAtomic(s.cleanedPath(sourceID), []byte(cleaned)); err != nil {
		return fmt.Errorf("%w: write cleaned text of %s: %w", domain.ErrStorage, sourceID, err)
	}
	if err := writeFileAtomic(s.chunksPath(sourceID), data); err != nil {
		return fmt.Errorf("%w: write chunks of %s: %w", domain.ErrStorage, sourceID, err)
	}
	return nil
}

// Load reads the chunk array of the source.
func (s *ChunkStore) Load(_ context.Context, sourceID string) ([]string, error) {
	if err := checkID(sourceID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.chunksPath(sourceID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read chunks of %s: %w", domain.ErrStorage, sourceID, err)
	}
	var chunks []string
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("%w: decode chunks of %s: %w", domain.ErrStorage, sourceID, err)
	}
	return chunks, nil
}
