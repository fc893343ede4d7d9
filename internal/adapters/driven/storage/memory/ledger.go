package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// Ensure Ledger implements the interfaces.
var (
	_ driven.DedupLedger   = (*Ledger)(nil)
	_ driven.SourceClaimer = (*Ledger)(nil)
)

// Ledger is an in-memory implementation of driven.DedupLedger.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]domain.LedgerEntry
	claims  map[string]bool
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[string]domain.LedgerEntry),
		claims:  make(map[string]bool),
	}
}

// IsProcessed reports whether the source was marked.
func (l *Ledger) IsProcessed(_ context.Context, sourceID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[sourceID]
	return ok, nil
}

// MarkProcessed records the entry.
func (l *Ledger) MarkProcessed(_ context.Context, entry domain.LedgerEntry) error {
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[entry.SourceID] = entry
	return nil
}

// Forget removes the entry.
func (l *Ledger) Forget(_ context.Context, sourceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[sourceID]; !ok {
		return domain.ErrNotFound
	}
	delete(l.entries, sourceID)
	return nil
}

// List returns all entries ordered by source id.
func (l *Ledger) List(_ context.Context) ([]domain.LedgerEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := make([]domain.LedgerEntry, 0, len(l.entries))
	for _, id := range slices.Sorted(maps.Keys(l.entries)) {
		entries = append(entries, l.entries[id])
	}
	return entries, nil
}

// Claim marks the source as in progress until release is called.
func (l *Ledger) Claim(_ context.Context, sourceID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claims[sourceID] {
		return nil, domain.ErrAlreadyClaimed
	}
	l.claims[sourceID] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.claims, sourceID)
	}, nil
}

// Close is a no-op.
func (l *Ledger) Close() error {
	return nil
}
