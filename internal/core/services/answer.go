package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

const (
	systemPrompt = "Você é a IA corporativa Athena, objetiva e precisa."

	groundedPrompt = `Você é a IA Athena, especialista em interpretar as políticas internas da organização.

Base de conhecimento relevante:

%s

Pergunta:
%s

Responda com extrema precisão, apenas com base no texto acima.
Se a política não cobre o assunto, diga claramente: "Essa política não trata sobre isso."`

	ungroundedPrompt = `Nenhuma política relevante foi encontrada para esta pergunta.
Responda de forma breve e, se a pergunta exigir uma política interna, diga que não há base documental.

Pergunta:
%s`
)

// AnswerService grounds LLM answers in assembled policy context.
type AnswerService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	opts      driven.ChatOptions
	prompts   driven.PromptStore
}

// DefaultPrompts returns the built-in answer prompts by name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptAnswerSystem:     systemPrompt,
		driven.PromptAnswerGrounded:   groundedPrompt,
		driven.PromptAnswerUngrounded: ungroundedPrompt,
	}
}

// NewAnswerService creates an answer service.
func NewAnswerService(retrieval driving.RetrievalService, llm driven.LLMService, opts driven.ChatOptions) *AnswerService {
	return &AnswerService{retrieval: retrieval, llm: llm, opts: opts}
}

// Answer assembles context for the question and asks the LLM. When
// retrieval fails or finds nothing the question is still answered, with
// Grounded set to false.
func (s *AnswerService) Answer(ctx context.Context, question string, opts domain.AssembleOptions) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	assembled, err := s.retrieval.Assemble(ctx, question, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Retrieval failed, answering without context: %v", err)
		assembled = &domain.AssembledContext{}
	}

	prompt := fmt.Sprintf(s.loadPrompt(driven.PromptAnswerUngrounded, ungroundedPrompt), question)
	if !assembled.IsEmpty() {
		prompt = fmt.Sprintf(s.loadPrompt(driven.PromptAnswerGrounded, groundedPrompt), assembled.Text, question)
	}

	text, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: s.loadPrompt(driven.PromptAnswerSystem, systemPrompt)},
		{Role: "user", Content: prompt},
	}, s.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	return &domain.Answer{
		Text:      strings.TrimSpace(text),
		Citations: assembled.Citations,
		Grounded:  !assembled.IsEmpty(),
	}, nil
}

// SetPromptStore lets edited prompt files override the built-in prompts.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

func (s *AnswerService) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}
