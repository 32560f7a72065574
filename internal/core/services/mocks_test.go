package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/semantic"
)

// --- Mock implementations for service testing ---

const mockDimensions = 512

// mockEmbedder is a deterministic bag-of-words embedder. Each distinct
// token gets its own axis, so similarity tracks shared vocabulary.
type mockEmbedder struct {
	mu    sync.Mutex
	vocab map[string]int
	calls int
	err   error
	delay time.Duration
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{vocab: make(map[string]int)}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	vec := make([]float32, mockDimensions)
	for _, tok := range semantic.Tokens(text) {
		idx, ok := m.vocab[tok]
		if !ok {
			idx = len(m.vocab) % mockDimensions
			m.vocab[tok] = idx
		}
		vec[idx]++
	}
	return vec, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return mockDimensions }
func (m *mockEmbedder) ModelName() string { return "mock-bow" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockSnapshots implements driven.SnapshotStore in memory.
type mockSnapshots struct {
	mu      sync.Mutex
	chunks  []domain.ChunkRecord
	saves   int
	saveErr error
	loadErr error
}

func (m *mockSnapshots) Load(context.Context) ([]domain.ChunkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]domain.ChunkRecord(nil), m.chunks...), nil
}

func (m *mockSnapshots) Save(_ context.Context, chunks []domain.ChunkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.chunks = append([]domain.ChunkRecord(nil), chunks...)
	return nil
}

func (m *mockSnapshots) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = nil
	return nil
}

func (m *mockSnapshots) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// mockStateStore implements driven.IngestStateStore in memory.
type mockStateStore struct {
	mu    sync.Mutex
	state *domain.IngestState
}

func (m *mockStateStore) Load(context.Context) (*domain.IngestState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return domain.NewIngestState(), nil
	}
	cp := &domain.IngestState{
		SchemaVersion: m.state.SchemaVersion,
		Documents:     make(map[string]domain.DocumentState, len(m.state.Documents)),
	}
	for k, v := range m.state.Documents {
		cp.Documents[k] = v
	}
	return cp, nil
}

func (m *mockStateStore) Save(_ context.Context, state *domain.IngestState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	return nil
}

func (m *mockStateStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

// mockLLM implements driven.LLMService and records the last prompt.
type mockLLM struct {
	reply    string
	err      error
	messages []driven.ChatMessage
}

func (m *mockLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return m.reply, m.err
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.messages = messages
	return m.reply, m.err
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error { return nil }

// mockRetrieval implements driving.RetrievalService with canned output.
type mockRetrieval struct {
	context *domain.AssembledContext
	err     error
}

func (m *mockRetrieval) Search(context.Context, string, int) ([]domain.Match, error) {
	return nil, m.err
}

func (m *mockRetrieval) Rerank(_ string, matches []domain.Match) []domain.Match { return matches }

func (m *mockRetrieval) Assemble(context.Context, string, domain.AssembleOptions) (*domain.AssembledContext, error) {
	return m.context, m.err
}

// mockIngest implements driving.IngestService for scheduler tests.
type mockIngest struct {
	mu     sync.Mutex
	passes int
	err    error
}

func (m *mockIngest) Ingest(context.Context) (*domain.IngestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes++
	return &domain.IngestReport{}, m.err
}

func (m *mockIngest) Reprocess(context.Context, string) (*domain.DocumentOutcome, error) {
	return nil, errors.New("not implemented")
}

func (m *mockIngest) Remove(context.Context, string) error { return nil }

func (m *mockIngest) Reset(context.Context) error { return nil }

func (m *mockIngest) Status(context.Context) (*domain.IngestState, error) {
	return domain.NewIngestState(), nil
}

func (m *mockIngest) passCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passes
}

// unit returns a unit vector along axis i.
func unit(dim, i int) []float32 {
	v := make([]float32, dim)
	v[i] = 1
	return v
}

// record builds a chunk with a vector and default labels.
func record(source string, page, order int, text string, vec []float32) domain.ChunkRecord {
	return domain.ChunkRecord{
		ID:        source + "#" + string(rune('a'+order)),
		Text:      text,
		Embedding: vec,
		Source:    source,
		Page:      page,
		Order:     order,
		Category:  domain.Unknown,
		Role:      semantic.RoleDefault,
		Topic:     domain.Unknown,
		DocType:   domain.Unknown,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

var (
	_ driven.EmbeddingService = (*mockEmbedder)(nil)
	_ driven.SnapshotStore    = (*mockSnapshots)(nil)
	_ driven.IngestStateStore = (*mockStateStore)(nil)
	_ driven.LLMService       = (*mockLLM)(nil)
)
