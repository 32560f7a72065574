package services

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
	"github.com/custodia-labs/athena/internal/semantic"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Rerank weights and boosts.
const (
	similarityWeight = 0.85
	overlapWeight    = 0.15
	roleBoost        = 1.15
	categoryBoost    = 1.10
	docTypeBoost     = 1.05
)

// RetrievalService searches, reranks and assembles context from the store.
type RetrievalService struct {
	store    *EmbeddingStore
	embedder *deadlineEmbedder
	cfg      domain.RetrievalSettings
	metrics  driven.Metrics
}

// NewRetrievalService creates a retrieval service.
// embedTimeout bounds each query embedding call; zero means no extra bound.
func NewRetrievalService(
	store *EmbeddingStore,
	embedding driven.EmbeddingService,
	embedTimeout time.Duration,
	cfg domain.RetrievalSettings,
	m driven.Metrics,
) *RetrievalService {
	if m == nil {
		m = driven.NopMetrics{}
	}
	return &RetrievalService{
		store:    store,
		embedder: newDeadlineEmbedder(embedding, embedTimeout, m),
		cfg:      withRetrievalDefaults(cfg),
		metrics:  m,
	}
}

// Search returns the k stored chunks most similar to the query.
func (s *RetrievalService) Search(ctx context.Context, query string, k int) ([]domain.Match, error) {
	start := time.Now()
	if k <= 0 {
		k = s.cfg.K
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if s.store.Count() == 0 {
		logger.Debug("Store is empty, no knowledge to search")
		return []domain.Match{}, nil
	}

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	matches := s.store.Search(vec, k)
	s.metrics.ObserveRetrieval("search", time.Since(start), len(matches))
	return matches, nil
}

// Rerank blends similarity with lexical overlap, applies intent boosts and
// re-sorts. The input slice is not modified.
func (s *RetrievalService) Rerank(query string, matches []domain.Match) []domain.Match {
	intent := semantic.InferIntent(query)
	queryTokens := semantic.Tokens(query)

	out := make([]domain.Match, len(matches))
	for i, m := range matches {
		score := similarityWeight*m.Score + overlapWeight*tokenOverlap(queryTokens, m.Text)
		if slices.Contains(intent.Roles, m.Role) {
			score *= roleBoost
		}
		if slices.Contains(intent.Categories, m.Category) {
			score *= categoryBoost
		}
		if slices.Contains(intent.DocTypes, m.DocType) {
			score *= docTypeBoost
		}
		m.Score = score
		out[i] = m
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// ensureLoaded lazily loads the snapshot into an empty store.
func (s *RetrievalService) ensureLoaded(ctx context.Context) error {
	if s.store.Count() > 0 {
		return nil
	}
	return s.store.Load(ctx)
}

// embedQuery embeds the intent-enriched query.
func (s *RetrievalService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	intent := semantic.InferIntent(query)
	if !intent.IsEmpty() {
		logger.Debug("Query intent: roles=%v categories=%v doc_types=%v",
			intent.Roles, intent.Categories, intent.DocTypes)
	}
	return s.embedder.embed(ctx, "embed query", EnrichQuery(query, intent))
}

// tokenOverlap is the fraction of query tokens that occur in text.
func tokenOverlap(queryTokens []string, text string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	present := make(map[string]struct{})
	for _, t := range semantic.Tokens(text) {
		present[t] = struct{}{}
	}
	hits := 0
	for _, q := range queryTokens {
		if _, ok := present[q]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

// withRetrievalDefaults fills unset knobs.
func withRetrievalDefaults(cfg domain.RetrievalSettings) domain.RetrievalSettings {
	def := domain.DefaultRetrievalSettings()
	if cfg.K <= 0 {
		cfg.K = def.K
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = def.MaxChars
	}
	if cfg.MaxPerSource <= 0 {
		cfg.MaxPerSource = def.MaxPerSource
	}
	if cfg.DominanceThreshold == 0 && cfg.DominanceMargin == 0 {
		cfg.DominanceThreshold = def.DominanceThreshold
		cfg.DominanceMargin = def.DominanceMargin
	}
	if cfg.MaxPreferredSources <= 0 {
		cfg.MaxPreferredSources = def.MaxPreferredSources
	}
	if cfg.SummaryExtraPages < 0 {
		cfg.SummaryExtraPages = def.SummaryExtraPages
	}
	if cfg.SummaryMinPerSource <= 0 {
		cfg.SummaryMinPerSource = def.SummaryMinPerSource
	}
	return cfg
}
