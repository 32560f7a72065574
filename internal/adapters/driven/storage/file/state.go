package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure IngestStateStore implements the interface.
var _ driven.IngestStateStore = (*IngestStateStore)(nil)

// StateFileName is the TOML ingest state inside the data directory.
const StateFileName = "ingest_state.toml"

// IngestStateStore keeps per-document tracking as a TOML document.
type IngestStateStore struct {
	path string
}

// NewIngestStateStore creates a state store in dataDir, creating the
// directory if needed.
func NewIngestStateStore(dataDir string) (*IngestStateStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &IngestStateStore{path: filepath.Join(dataDir, StateFileName)}, nil
}

// Path returns the state file path.
func (s *IngestStateStore) Path() string {
	return s.path
}

// Load reads the state. A missing file yields a fresh state. A file
// without a schema_version predates versioning and loads as version 0,
// which forces every document to be re-embedded.
func (s *IngestStateStore) Load(_ context.Context) (*domain.IngestState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewIngestState(), nil
		}
		return nil, err
	}

	var state domain.IngestState
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if state.Documents == nil {
		state.Documents = make(map[string]domain.DocumentState)
	}
	return &state, nil
}

// Save replaces the state file atomically.
func (s *IngestStateStore) Save(_ context.Context, state *domain.IngestState) error {
	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode ingest state: %w", err)
	}
	return WriteFileAtomic(s.path, data, 0600)
}

// Delete removes the state file.
func (s *IngestStateStore) Delete(_ context.Context) error {
	return removeIfExists(s.path)
}
