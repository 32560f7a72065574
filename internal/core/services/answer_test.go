package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

func TestAnswer_Grounded(t *testing.T) {
	llm := &mockLLM{reply: "  A multa é de 2% ao mês.  "}
	retrieval := &mockRetrieval{context: &domain.AssembledContext{
		Text:      "Document: Policy_X.pdf | Page: 2\nMulta por atraso: 2% ao mes.",
		Citations: []domain.Citation{{Source: "Policy_X.pdf", Page: 2, Score: 0.8}},
		Snippets:  1,
	}}
	svc := NewAnswerService(retrieval, llm, driven.ChatOptions{Temperature: 0.1, MaxTokens: 700})

	ans, err := svc.Answer(context.Background(), "quais as multas?", domain.AssembleOptions{})
	require.NoError(t, err)
	assert.True(t, ans.Grounded)
	assert.Equal(t, "A multa é de 2% ao mês.", ans.Text)
	assert.Len(t, ans.Citations, 1)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, "system", llm.messages[0].Role)
	assert.Contains(t, llm.messages[1].Content, "Multa por atraso: 2% ao mes.")
	assert.Contains(t, llm.messages[1].Content, "quais as multas?")
}

func TestAnswer_RetrievalFailureDegrades(t *testing.T) {
	llm := &mockLLM{reply: "Olá!"}
	svc := NewAnswerService(&mockRetrieval{err: errors.New("embedding down")}, llm, driven.ChatOptions{})

	ans, err := svc.Answer(context.Background(), "oi", domain.AssembleOptions{})
	require.NoError(t, err)
	assert.False(t, ans.Grounded)
	assert.Empty(t, ans.Citations)
	assert.NotContains(t, llm.messages[1].Content, "Base de conhecimento")
}

func TestAnswer_NoContextIsUngrounded(t *testing.T) {
	llm := &mockLLM{reply: "Não há base documental."}
	svc := NewAnswerService(&mockRetrieval{context: &domain.AssembledContext{}}, llm, driven.ChatOptions{})

	ans, err := svc.Answer(context.Background(), "qual a capital da França?", domain.AssembleOptions{})
	require.NoError(t, err)
	assert.False(t, ans.Grounded)
}

func TestAnswer_Errors(t *testing.T) {
	ctx := context.Background()
	retrieval := &mockRetrieval{context: &domain.AssembledContext{}}

	_, err := NewAnswerService(retrieval, nil, driven.ChatOptions{}).Answer(ctx, "pergunta", domain.AssembleOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	_, err = NewAnswerService(retrieval, &mockLLM{}, driven.ChatOptions{}).Answer(ctx, "  ", domain.AssembleOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewAnswerService(retrieval, &mockLLM{err: errors.New("503")}, driven.ChatOptions{}).
		Answer(ctx, "pergunta", domain.AssembleOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

type stubPrompts map[string]string

func (p stubPrompts) Load(name string) (string, error) {
	if v, ok := p[name]; ok {
		return v, nil
	}
	return "", errors.New("missing")
}

func (p stubPrompts) Reload() {}

func TestAnswer_PromptStoreOverrides(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	retrieval := &mockRetrieval{context: &domain.AssembledContext{Text: "Document: a.pdf | Page: 1\nx"}}
	svc := NewAnswerService(retrieval, llm, driven.ChatOptions{})
	svc.SetPromptStore(stubPrompts{
		driven.PromptAnswerSystem:   "SYS",
		driven.PromptAnswerGrounded: "CTX=%s Q=%s",
	})

	_, err := svc.Answer(context.Background(), "prazo?", domain.AssembleOptions{})
	require.NoError(t, err)
	require.Len(t, llm.messages, 2)
	assert.Equal(t, "SYS", llm.messages[0].Content)
	assert.Equal(t, "CTX=Document: a.pdf | Page: 1\nx Q=prazo?", llm.messages[1].Content)

	// Missing prompts fall back to the built-in ones.
	retrieval.context = &domain.AssembledContext{}
	_, err = svc.Answer(context.Background(), "prazo?", domain.AssembleOptions{})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf(DefaultPrompts()[driven.PromptAnswerUngrounded], "prazo?"), llm.messages[1].Content)
}
