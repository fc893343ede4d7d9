package mcp

import (
	"context"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer  *domain.Answer
	results []domain.RetrievedChunk
	err     error

	gotQuery string
	gotTopK  int
}

func (m *mockQueryService) Answer(_ context.Context, query string, topK int) (*domain.Answer, error) {
	m.gotQuery, m.gotTopK = query, topK
	return m.answer, m.err
}

func (m *mockQueryService) Retrieve(_ context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	m.gotQuery, m.gotTopK = query, topK
	return m.results, m.err
}

// mockLedger is a mock implementation of driven.DedupLedger.
type mockLedger struct {
	entries []domain.LedgerEntry
	err     error
}

func (m *mockLedger) IsProcessed(context.Context, string) (bool, error)       { return false, m.err }
func (m *mockLedger) MarkProcessed(context.Context, domain.LedgerEntry) error { return m.err }
func (m *mockLedger) Forget(context.Context, string) error                    { return m.err }
func (m *mockLedger) List(context.Context) ([]domain.LedgerEntry, error)      { return m.entries, m.err }
func (m *mockLedger) Close() error                                            { return nil }
