package mcp

import (
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driving"
)

// Ports aggregates the services the MCP server exposes.
type Ports struct {
	// Query answers questions and retrieves excerpts.
	Query driving.QueryService

	// Ledger lists ingested videos. Optional.
	Ledger driven.DedupLedger

	// Chunks serves the stored chunks of a video. Optional.
	Chunks driven.ChunkStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
