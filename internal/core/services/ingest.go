package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService keeps the embedding store in step with a policy directory.
// Documents are keyed by filename and re-embedded only when their content
// hash or the index schema version changes.
type IngestService struct {
	policyDir  string
	extractors driven.ExtractorRegistry
	pipeline   driven.PostProcessorPipeline
	store      *EmbeddingStore
	embedder   *deadlineEmbedder
	state      driven.IngestStateStore
	metrics    driven.Metrics

	// running serialises passes; a second caller gets ErrIngestInProgress.
	running sync.Mutex
	now     func() time.Time
}

// IngestConfig bundles the collaborators of an IngestService.
type IngestConfig struct {
	PolicyDir    string
	Extractors   driven.ExtractorRegistry
	Pipeline     driven.PostProcessorPipeline
	Store        *EmbeddingStore
	Embedding    driven.EmbeddingService
	EmbedTimeout time.Duration
	State        driven.IngestStateStore
	Metrics      driven.Metrics
}

// NewIngestService creates an ingestion service.
func NewIngestService(cfg IngestConfig) *IngestService {
	m := cfg.Metrics
	if m == nil {
		m = driven.NopMetrics{}
	}
	return &IngestService{
		policyDir:  cfg.PolicyDir,
		extractors: cfg.Extractors,
		pipeline:   cfg.Pipeline,
		store:      cfg.Store,
		embedder:   newDeadlineEmbedder(cfg.Embedding, cfg.EmbedTimeout, m),
		state:      cfg.State,
		metrics:    m,
		now:        time.Now,
	}
}

// Ingest runs one incremental pass. Per-document failures are recorded in
// the report and the state; only storage failures abort the pass.
func (s *IngestService) Ingest(ctx context.Context) (*domain.IngestReport, error) {
	if !s.running.TryLock() {
		return nil, domain.ErrIngestInProgress
	}
	defer s.running.Unlock()

	start := s.now()
	logger.Section("Ingestion")
	logger.Info("Scanning %s", s.policyDir)

	if err := s.store.Load(ctx); err != nil {
		return nil, err
	}
	state, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}
	files, err := s.listPolicyFiles()
	if err != nil {
		return nil, err
	}

	report := &domain.IngestReport{}
	present := make(map[string]struct{}, len(files))
	var passErr error

	for _, name := range files {
		present[name] = struct{}{}
		if err := ctx.Err(); err != nil {
			passErr = err
			break
		}

		hash, err := hashFile(filepath.Join(s.policyDir, name))
		if err != nil {
			outcome := s.fail(state, name, "", domain.ChangeChanged, fmt.Errorf("hash: %w", err))
			s.record(report, outcome)
			continue
		}

		change := state.Classify(name, hash, true)
		if change == domain.ChangeUnchanged {
			logger.Debug("Unchanged: %s", name)
			s.record(report, domain.DocumentOutcome{
				Name:   name,
				Change: change,
				Status: domain.StatusCompleted,
				Chunks: state.Documents[name].Chunks,
			})
			continue
		}

		outcome, err := s.process(ctx, state, name, hash, change)
		s.record(report, outcome)
		if err != nil {
			passErr = err
			break
		}
	}

	if passErr == nil {
		passErr = s.purgeRemoved(ctx, state, present, report)
	}

	// Documents not reached keep their old records, so the version only
	// advances once every present file went through this pass.
	if passErr == nil {
		state.SchemaVersion = domain.IndexSchemaVersion
	}
	if err := s.state.Save(ctx, state); err != nil {
		passErr = errors.Join(passErr, fmt.Errorf("%w: save ingest state: %w", domain.ErrStorage, err))
	}

	report.Duration = s.now().Sub(start)
	logger.Zap().Info("ingestion pass finished",
		zap.Int("unseen", report.Unseen),
		zap.Int("changed", report.Changed),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("removed", report.Removed),
		zap.Int("failed", report.Failed),
		zap.Int("chunks", s.store.Count()),
		zap.Duration("duration", report.Duration),
	)
	if passErr != nil {
		return report, passErr
	}
	return report, nil
}

// Reprocess re-embeds one document regardless of its recorded hash.
func (s *IngestService) Reprocess(ctx context.Context, name string) (*domain.DocumentOutcome, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if !s.running.TryLock() {
		return nil, domain.ErrIngestInProgress
	}
	defer s.running.Unlock()

	if err := s.store.Load(ctx); err != nil {
		return nil, err
	}
	state, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := hashFile(filepath.Join(s.policyDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", name, err)
	}

	outcome, procErr := s.process(ctx, state, name, hash, domain.ChangeChanged)
	s.metrics.RecordDocument(string(outcome.Change), string(outcome.Status))
	if err := s.state.Save(ctx, state); err != nil {
		return &outcome, errors.Join(procErr, fmt.Errorf("%w: save ingest state: %w", domain.ErrStorage, err))
	}
	return &outcome, procErr
}

// Remove purges one document's chunks and forgets it.
func (s *IngestService) Remove(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if !s.running.TryLock() {
		return domain.ErrIngestInProgress
	}
	defer s.running.Unlock()

	if err := s.store.Load(ctx); err != nil {
		return err
	}
	state, err := s.loadState(ctx)
	if err != nil {
		return err
	}

	removed, err := s.store.RemoveSource(ctx, name)
	if err != nil {
		return err
	}
	_, tracked := state.Documents[name]
	if !tracked && removed == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	delete(state.Documents, name)
	logger.Info("Removed %s (%d chunks)", name, removed)

	if err := s.state.Save(ctx, state); err != nil {
		return fmt.Errorf("%w: save ingest state: %w", domain.ErrStorage, err)
	}
	return nil
}

// Reset clears the store, its snapshot and all tracking, so the next pass
// re-embeds everything.
func (s *IngestService) Reset(ctx context.Context) error {
	if !s.running.TryLock() {
		return domain.ErrIngestInProgress
	}
	defer s.running.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	if err := s.state.Delete(ctx); err != nil {
		return fmt.Errorf("%w: delete ingest state: %w", domain.ErrStorage, err)
	}
	logger.Info("Store and ingest state reset")
	return nil
}

// Status returns the persisted tracking records.
func (s *IngestService) Status(ctx context.Context) (*domain.IngestState, error) {
	return s.loadState(ctx)
}

// process replaces a document's chunks with freshly embedded ones and
// updates its state record. The returned error is non-nil only for storage
// failures, which must abort the caller.
func (s *IngestService) process(
	ctx context.Context,
	state *domain.IngestState,
	name, hash string,
	change domain.ChangeKind,
) (domain.DocumentOutcome, error) {
	logger.Info("Ingesting %s (%s)", name, change)
	state.Documents[name] = domain.DocumentState{
		Hash:      hash,
		Status:    domain.StatusPending,
		UpdatedAt: s.now(),
	}

	if _, err := s.store.RemoveSource(ctx, name); err != nil {
		return s.fail(state, name, hash, change, err), err
	}

	chunks, err := s.build(ctx, name, hash)
	if err != nil {
		return s.fail(state, name, hash, change, err), nil
	}
	if err := s.store.Add(ctx, chunks); err != nil {
		outcome := s.fail(state, name, hash, change, err)
		if errors.Is(err, domain.ErrStorage) {
			return outcome, err
		}
		return outcome, nil
	}

	state.Documents[name] = domain.DocumentState{
		Hash:      hash,
		Status:    domain.StatusCompleted,
		Chunks:    len(chunks),
		UpdatedAt: s.now(),
	}
	logger.Debug("Stored %d chunks for %s", len(chunks), name)
	return domain.DocumentOutcome{
		Name:   name,
		Change: change,
		Status: domain.StatusCompleted,
		Chunks: len(chunks),
	}, nil
}

// build extracts, chunks, tags and embeds one document.
func (s *IngestService) build(ctx context.Context, name, hash string) ([]domain.ChunkRecord, error) {
	path := filepath.Join(s.policyDir, name)
	pages, err := s.extractors.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if !hasText(pages) {
		return nil, domain.ErrNoExtractableText
	}

	doc := &domain.SourceDocument{Name: name, Path: path, Pages: pages, Hash: hash}
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return nil, domain.ErrNoExtractableText
	}

	for i := range chunks {
		vec, err := s.embedder.embed(ctx, "embed chunk", EnrichChunk(&chunks[i]))
		if err != nil {
			return nil, err
		}
		chunks[i].Embedding = vec
	}
	return chunks, nil
}

// purgeRemoved drops tracked documents missing from disk, and any stored
// source that is neither tracked nor present.
func (s *IngestService) purgeRemoved(
	ctx context.Context,
	state *domain.IngestState,
	present map[string]struct{},
	report *domain.IngestReport,
) error {
	var gone []string
	for name := range state.Documents {
		if _, ok := present[name]; !ok {
			gone = append(gone, name)
		}
	}
	sort.Strings(gone)

	for _, name := range gone {
		if state.Classify(name, "", false) != domain.ChangeRemoved {
			continue
		}
		removed, err := s.store.RemoveSource(ctx, name)
		if err != nil {
			return err
		}
		delete(state.Documents, name)
		logger.Info("Removed %s (%d chunks)", name, removed)
		s.record(report, domain.DocumentOutcome{Name: name, Change: domain.ChangeRemoved})
	}

	for _, src := range s.store.Sources() {
		if _, ok := present[src]; ok {
			continue
		}
		removed, err := s.store.RemoveSource(ctx, src)
		if err != nil {
			return err
		}
		logger.Warn("Purged %d orphaned chunks of %s", removed, src)
	}
	return nil
}

func (s *IngestService) fail(
	state *domain.IngestState,
	name, hash string,
	change domain.ChangeKind,
	err error,
) domain.DocumentOutcome {
	logger.Warn("Failed to ingest %s: %v", name, err)
	state.Documents[name] = domain.DocumentState{
		Hash:      hash,
		Status:    domain.StatusError,
		Error:     err.Error(),
		UpdatedAt: s.now(),
	}
	return domain.DocumentOutcome{
		Name:   name,
		Change: change,
		Status: domain.StatusError,
		Error:  err.Error(),
	}
}

func (s *IngestService) record(report *domain.IngestReport, o domain.DocumentOutcome) {
	report.Record(o)
	s.metrics.RecordDocument(string(o.Change), string(o.Status))
}

func (s *IngestService) loadState(ctx context.Context) (*domain.IngestState, error) {
	state, err := s.state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load ingest state: %w", domain.ErrStorage, err)
	}
	if state == nil {
		state = domain.NewIngestState()
	}
	if state.Documents == nil {
		state.Documents = make(map[string]domain.DocumentState)
	}
	return state, nil
}

// listPolicyFiles returns the regular, non-hidden files of the policy
// directory, sorted. A missing directory is an error rather than an empty
// one, otherwise the pass would purge every tracked document.
func (s *IngestService) listPolicyFiles() ([]string, error) {
	entries, err := os.ReadDir(s.policyDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: policy directory %s", domain.ErrNotFound, s.policyDir)
	}
	if err != nil {
		return nil, fmt.Errorf("list policy directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !e.Type().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: invalid document name %q", domain.ErrInvalidInput, name)
	}
	return nil
}

// hashFile returns the hex sha256 of a file's content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hasText(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}
