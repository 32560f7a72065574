package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/logger"
)

// EmbeddingStore holds every chunk record in memory and mirrors it to a
// snapshot. Writers serialise on a mutex and publish a fresh immutable
// slice; readers load the current slice without locking.
type EmbeddingStore struct {
	snapshots driven.SnapshotStore
	metrics   driven.Metrics

	mu      sync.Mutex
	current atomic.Pointer[[]domain.ChunkRecord]
}

// NewEmbeddingStore creates an empty store persisted through snapshots.
// snapshots may be nil for a purely in-memory store.
func NewEmbeddingStore(snapshots driven.SnapshotStore, m driven.Metrics) *EmbeddingStore {
	if m == nil {
		m = driven.NopMetrics{}
	}
	s := &EmbeddingStore{snapshots: snapshots, metrics: m}
	s.current.Store(&[]domain.ChunkRecord{})
	return s
}

// Snapshot returns the current records. Callers must not modify them.
func (s *EmbeddingStore) Snapshot() []domain.ChunkRecord {
	return *s.current.Load()
}

// Count returns the number of records held.
func (s *EmbeddingStore) Count() int {
	return len(s.Snapshot())
}

// Dimensions returns the vector size of the store, or 0 when empty.
func (s *EmbeddingStore) Dimensions() int {
	if recs := s.Snapshot(); len(recs) > 0 {
		return len(recs[0].Embedding)
	}
	return 0
}

// Load reads the persisted snapshot into memory. It is a no-op when the
// store already holds records; call Clear first to force a reload.
func (s *EmbeddingStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Snapshot()) > 0 || s.snapshots == nil {
		return nil
	}
	recs, err := s.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load snapshot: %w", domain.ErrStorage, err)
	}
	if len(recs) > 0 {
		logger.Debug("Loaded %d chunks from snapshot", len(recs))
	}
	s.publish(recs)
	return nil
}

// Add appends chunks and persists the whole store. Every chunk needs
// non-blank text and a vector matching the store's dimension.
func (s *EmbeddingStore) Add(ctx context.Context, chunks []domain.ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.Snapshot()
	dim := 0
	if len(old) > 0 {
		dim = len(old[0].Embedding)
	}
	for i := range chunks {
		c := &chunks[i]
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("%w: chunk %d of %s has no text", domain.ErrInvalidInput, c.Order, c.Source)
		}
		if len(c.Embedding) == 0 {
			return fmt.Errorf("%w: chunk %d of %s has no embedding", domain.ErrInvalidInput, c.Order, c.Source)
		}
		if dim == 0 {
			dim = len(c.Embedding)
		}
		if len(c.Embedding) != dim {
			return fmt.Errorf("%w: got %d, store holds %d", domain.ErrDimensionMismatch, len(c.Embedding), dim)
		}
	}

	next := make([]domain.ChunkRecord, 0, len(old)+len(chunks))
	next = append(next, old...)
	next = append(next, chunks...)
	return s.commit(ctx, next)
}

// RemoveSource drops every chunk whose source equals source exactly and
// persists the result. Returns how many chunks were removed.
func (s *EmbeddingStore) RemoveSource(ctx context.Context, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.Snapshot()
	next := make([]domain.ChunkRecord, 0, len(old))
	for _, c := range old {
		if c.Source != source {
			next = append(next, c)
		}
	}
	removed := len(old) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return 0, err
	}
	return removed, nil
}

// Save persists the current records.
func (s *EmbeddingStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, s.Snapshot())
}

// Clear empties memory and deletes the persisted snapshot.
func (s *EmbeddingStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx); err != nil {
			return fmt.Errorf("%w: delete snapshot: %w", domain.ErrStorage, err)
		}
	}
	s.publish(nil)
	return nil
}

// Search scores every record against vec and returns the top k.
func (s *EmbeddingStore) Search(vec []float32, k int) []domain.Match {
	return topK(Score(vec, s.Snapshot()), k)
}

// Sources returns the distinct sources held, sorted.
func (s *EmbeddingStore) Sources() []string {
	seen := make(map[string]struct{})
	for _, c := range s.Snapshot() {
		seen[c.Source] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for src := range seen {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// ChunksForSources returns the records of the given sources in stored order.
func (s *EmbeddingStore) ChunksForSources(sources ...string) []domain.ChunkRecord {
	want := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		want[src] = struct{}{}
	}
	var out []domain.ChunkRecord
	for _, c := range s.Snapshot() {
		if _, ok := want[c.Source]; ok {
			out = append(out, c)
		}
	}
	return out
}

// commit persists next and only then publishes it, so memory never runs
// ahead of durable storage. Callers hold mu.
func (s *EmbeddingStore) commit(ctx context.Context, next []domain.ChunkRecord) error {
	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, next); err != nil {
			return fmt.Errorf("%w: save snapshot: %w", domain.ErrStorage, err)
		}
	}
	s.publish(next)
	return nil
}

func (s *EmbeddingStore) publish(recs []domain.ChunkRecord) {
	if recs == nil {
		recs = []domain.ChunkRecord{}
	}
	s.current.Store(&recs)
	s.metrics.SetStoreSize(len(recs))
}

// Score computes cosine similarity of vec against every record.
func Score(vec []float32, recs []domain.ChunkRecord) []domain.Match {
	matches := make([]domain.Match, len(recs))
	for i := range recs {
		matches[i] = domain.Match{ChunkRecord: recs[i], Score: CosineSimilarity(vec, recs[i].Embedding)}
	}
	return matches
}

// topK sorts matches by descending score and keeps the first k.
// Ties keep the stored order.
func topK(matches []domain.Match, k int) []domain.Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k >= 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
