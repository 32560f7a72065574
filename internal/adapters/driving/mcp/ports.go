package mcp

import (
	"net/http"

	"github.com/custodia-labs/athena/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Retrieval serves search and context assembly.
	Retrieval driving.RetrievalService

	// Ingest reports per-document status. Optional.
	Ingest driving.IngestService

	// Metrics is mounted at /metrics in HTTP mode. Optional.
	Metrics http.Handler
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
