package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotFileName is the JSON snapshot inside the data directory.
const SnapshotFileName = "embeddings.json"

// SnapshotStore keeps the chunk collection as one JSON array.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore creates a snapshot store in dataDir, creating the
// directory if needed.
func NewSnapshotStore(dataDir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &SnapshotStore{path: filepath.Join(dataDir, SnapshotFileName)}, nil
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file yields an empty slice.
func (s *SnapshotStore) Load(_ context.Context) ([]domain.ChunkRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.ChunkRecord{}, nil
		}
		return nil, err
	}

	var chunks []domain.ChunkRecord
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if chunks == nil {
		chunks = []domain.ChunkRecord{}
	}
	return chunks, nil
}

// Save replaces the snapshot file atomically.
func (s *SnapshotStore) Save(_ context.Context, chunks []domain.ChunkRecord) error {
	if chunks == nil {
		chunks = []domain.ChunkRecord{}
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return WriteFileAtomic(s.path, data, 0600)
}

// Delete removes the snapshot file.
func (s *SnapshotStore) Delete(_ context.Context) error {
	return removeIfExists(s.path)
}
