package driving

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// RetrievalService answers queries against the embedding store.
type RetrievalService interface {
	// Search returns the k chunks most similar to the intent-enriched query.
	// An empty store yields an empty result, not an error.
	Search(ctx context.Context, query string, k int) ([]domain.Match, error)

	// Rerank blends similarity with token overlap and intent boosts.
	Rerank(query string, matches []domain.Match) []domain.Match

	// Assemble selects, formats and cites context for an LLM prompt.
	Assemble(ctx context.Context, query string, opts domain.AssembleOptions) (*domain.AssembledContext, error)
}

// AnswerService produces grounded answers.
type AnswerService interface {
	// Answer assembles context and asks the LLM. Retrieval failures degrade
	// to an ungrounded answer instead of failing the call.
	Answer(ctx context.Context, question string, opts domain.AssembleOptions) (*domain.Answer, error)
}
