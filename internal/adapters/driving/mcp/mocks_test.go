package mcp

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	matches   []domain.Match
	assembled *domain.AssembledContext
	err       error

	lastK    int
	lastOpts domain.AssembleOptions
	reranked bool
}

func (m *mockRetrievalService) Search(_ context.Context, _ string, k int) ([]domain.Match, error) {
	m.lastK = k
	return m.matches, m.err
}

func (m *mockRetrievalService) Rerank(_ string, matches []domain.Match) []domain.Match {
	m.reranked = true
	return matches
}

func (m *mockRetrievalService) Assemble(
	_ context.Context,
	_ string,
	opts domain.AssembleOptions,
) (*domain.AssembledContext, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.assembled == nil {
		return &domain.AssembledContext{}, nil
	}
	return m.assembled, nil
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	state *domain.IngestState
	err   error
}

func (m *mockIngestService) Ingest(_ context.Context) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, m.err
}

func (m *mockIngestService) Reprocess(_ context.Context, name string) (*domain.DocumentOutcome, error) {
	return &domain.DocumentOutcome{Name: name}, m.err
}

func (m *mockIngestService) Remove(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIngestService) Reset(_ context.Context) error {
	return m.err
}

func (m *mockIngestService) Status(_ context.Context) (*domain.IngestState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}
