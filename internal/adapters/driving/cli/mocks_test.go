package cli

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/athena/internal/core/domain"
)

type mockIngestService struct {
	report  *domain.IngestReport
	outcome *domain.DocumentOutcome
	state   *domain.IngestState
	err     error

	removed []string
	resets  int
}

func (m *mockIngestService) Ingest(_ context.Context) (*domain.IngestReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.report == nil {
		return &domain.IngestReport{}, nil
	}
	return m.report, nil
}

func (m *mockIngestService) Reprocess(_ context.Context, name string) (*domain.DocumentOutcome, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.outcome == nil {
		return &domain.DocumentOutcome{Name: name, Change: domain.ChangeChanged, Status: domain.StatusCompleted}, nil
	}
	return m.outcome, nil
}

func (m *mockIngestService) Remove(_ context.Context, name string) error {
	m.removed = append(m.removed, name)
	return m.err
}

func (m *mockIngestService) Reset(_ context.Context) error {
	m.resets++
	return m.err
}

func (m *mockIngestService) Status(_ context.Context) (*domain.IngestState, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.state == nil {
		return domain.NewIngestState(), nil
	}
	return m.state, nil
}

type mockRetrievalService struct {
	matches   []domain.Match
	assembled *domain.AssembledContext
	err       error

	lastK    int
	lastOpts domain.AssembleOptions
}

func (m *mockRetrievalService) Search(_ context.Context, _ string, k int) ([]domain.Match, error) {
	m.lastK = k
	return m.matches, m.err
}

func (m *mockRetrievalService) Rerank(_ string, matches []domain.Match) []domain.Match {
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

type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	lastOpts domain.AssembleOptions
}

func (m *mockAnswerService) Answer(_ context.Context, _ string, opts domain.AssembleOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	return m.answer, m.err
}

type mockSettingsService struct {
	settings domain.Settings
	setErr   error
	values   map[string]string
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"chunker.chunk_size", "retrieval.k"}
}

func (m *mockSettingsService) Path() string {
	return "/tmp/athena/config.toml"
}

type mockScheduler struct {
	mu       sync.Mutex
	started  bool
	triggers int
	stopped  bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Trigger() {
	m.mu.Lock()
	m.triggers++
	m.mu.Unlock()
}

func (m *mockScheduler) Stop() error {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	return nil
}

func (m *mockScheduler) wasStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	ingest    *mockIngestService
	retrieval *mockRetrievalService
	answer    *mockAnswerService
	settings  *mockSettingsService
	scheduler *mockScheduler
}

// setupTestServices installs mocks and resets flags. The returned function
// restores the previous state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest: &mockIngestService{},
		retrieval: &mockRetrievalService{
			matches: []domain.Match{{
				ChunkRecord: domain.ChunkRecord{
					Source:   "ferias.pdf",
					Page:     3,
					Text:     "O colaborador tem direito a 30 dias de férias por ano.",
					Category: "rh",
					Role:     "regra",
				},
				Score: 0.812,
			}},
		},
		answer:    &mockAnswerService{answer: &domain.Answer{Text: "30 dias.", Grounded: true}},
		settings:  &mockSettingsService{settings: domain.DefaultSettings()},
		scheduler: &mockScheduler{},
	}

	prevIngest, prevRetrieval, prevAnswer := ingestService, retrievalService, answerService
	prevSettings, prevScheduler, prevDir := settingsService, schedulerService, policyDir

	ingestService = ts.ingest
	retrievalService = ts.retrieval
	answerService = ts.answer
	settingsService = ts.settings
	schedulerService = ts.scheduler
	policyDir = ""
	resetFlags()

	return ts, func() {
		ingestService, retrievalService, answerService = prevIngest, prevRetrieval, prevAnswer
		settingsService, schedulerService, policyDir = prevSettings, prevScheduler, prevDir
		resetFlags()
		rootCmd.SetArgs(nil)
	}
}

func resetFlags() {
	jsonOutput = false
	verbose = false
	resetConfirmed = false
	searchK = 5
	contextK = 0
	contextMaxChars = 0
	contextMaxPerSource = 0
	contextMode = "qa"
	watchMetricsAddr = ""
	watchDebounce = 50 * time.Millisecond
}
