package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// DefaultLedgerFile is the ledger file name inside the data directory.
const DefaultLedgerFile = "processed_videos.json"

// Ensure Ledger implements the interface.
var _ driven.DedupLedger = (*Ledger)(nil)

// ledgerFile is the on-disk layout.
type ledgerFile struct {
	Processed map[string]bool               `json:"processed"`
	Entries   map[string]domain.LedgerEntry `json:"entries"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

// Ledger is a JSON-file implementation of driven.DedupLedger.
type Ledger struct {
	mu      sync.RWMutex
	path    string
	entries map[string]domain.LedgerEntry
}

// OpenLedger loads the ledger at path. A missing file is an empty ledger.
// An unreadable or malformed file fails with domain.ErrStorage.
func OpenLedger(path string) (*Ledger, error) {
	l := &Ledger{
		path:    path,
		entries: make(map[string]domain.LedgerEntry),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read ledger %s: %w", domain.ErrStorage, path, err)
	}
	if len(data) == 0 {
		return l, nil
	}

	entries, err := decodeLedger(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode ledger %s: %w", domain.ErrStorage, path, err)
	}
	l.entries = entries
	return l, nil
}

// decodeLedger accepts the current layout as well as a flat object mapping
// source ids to true or to a title.
func decodeLedger(data []byte) (map[string]domain.LedgerEntry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	entries := make(map[string]domain.LedgerEntry, len(raw))
	if _, ok := raw["processed"]; ok {
		var f ledgerFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		for id, done := range f.Processed {
			if !done {
				continue
			}
			e := f.Entries[id]
			e.SourceID = id
			entries[id] = e
		}
		return entries, nil
	}

	for id, v := range raw {
		var done bool
		if err := json.Unmarshal(v, &done); err == nil {
			if done {
				entries[id] = domain.LedgerEntry{SourceID: id}
			}
			continue
		}
		var title string
		if err := json.Unmarshal(v, &title); err != nil {
			return nil, fmt.Errorf("entry %q: expected bool or string", id)
		}
		entries[id] = domain.LedgerEntry{SourceID: id, Title: title}
	}
	return entries, nil
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return l.path
}

// IsProcessed reports whether the source is in the ledger.
func (l *Ledger) IsProcessed(_ context.Context, sourceID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[sourceID]
	return ok, nil
}

// MarkProcessed adds the entry and rewrites the file before returning.
// On a write failure the in-memory state is rolled back.
func (l *Ledger) MarkProcessed(_ context.Context, entry domain.LedgerEntry) error {
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	prev, had := l.entries[entry.SourceID]
	l.entries[entry.SourceID] = entry
	if err := l.flush(); err != nil {
		if had {
			l.entries[entry.SourceID] = prev
		} else {
			delete(l.entries, entry.SourceID)
		}
		return err
	}
	return nil
}

// Forget removes the source and rewrites the file.
func (l *Ledger) Forget(_ context.Context, sourceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev, ok := l.entries[sourceID]
	if !ok {
		return domain.ErrNotFound
	}
	delete(l.entries, sourceID)
	if err := l.flush(); err != nil {
		l.entries[sourceID] = prev
		return err
	}
	return nil
}

// List returns all entries ordered by source id.
func (l *Ledger) List(_ context.Context) ([]domain.LedgerEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.LedgerEntry, 0, len(l.entries))
	for _, id := range slices.Sorted(maps.Keys(l.entries)) {
		out = append(out, l.entries[id])
	}
	return out, nil
}

// Close is a no-op; every mutation is already on disk.
func (l *Ledger) Close() error {
	return nil
}

// flush writes the whole ledger. Caller holds the write lock.
func (l *Ledger) flush() error {
	f := ledgerFile{
		Processed: make(map[string]bool, len(l.entries)),
		Entries:   l.entries,
		UpdatedAt: time.Now().UTC(),
	}
	for id := range l.entries {
		f.Processed[id] = true
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := writeFileAtomic(l.path, data); err != nil {
		return fmt.Errorf("%w: write ledger %s: %w", domain.ErrStorage, l.path, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory, syncs it
// and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
