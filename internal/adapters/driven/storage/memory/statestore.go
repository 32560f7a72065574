package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure IngestStateStore implements the interface.
var _ driven.IngestStateStore = (*IngestStateStore)(nil)

// IngestStateStore keeps the last saved ingest state.
type IngestStateStore struct {
	mu    sync.RWMutex
	state *domain.IngestState
}

// NewIngestStateStore creates an empty state store.
func NewIngestStateStore() *IngestStateStore {
	return &IngestStateStore{}
}

// Load returns a copy of the saved state, or a fresh one.
func (s *IngestStateStore) Load(_ context.Context) (*domain.IngestState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return domain.NewIngestState(), nil
	}
	return cloneState(s.state), nil
}

// Save replaces the saved state with a copy of state.
func (s *IngestStateStore) Save(_ context.Context, state *domain.IngestState) error {
	next := cloneState(state)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
	return nil
}

// Delete forgets the saved state.
func (s *IngestStateStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}

func cloneState(in *domain.IngestState) *domain.IngestState {
	out := &domain.IngestState{
		SchemaVersion: in.SchemaVersion,
		Documents:     make(map[string]domain.DocumentState, len(in.Documents)),
	}
	maps.Copy(out.Documents, in.Documents)
	return out
}
