// Package openai provides an LLM adapter for OpenAI-compatible chat
// completion APIs. LM Studio and other local servers need no API key.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:1234/v1"
	DefaultLLMModel   = "phi-3.5-mini-instruct"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the chat completion service.
type LLMConfig struct {
	// APIKey is sent as a bearer token when set. Required for api.openai.com.
	APIKey string

	// BaseURL is the API base URL (default: http://localhost:1234/v1).
	BaseURL string

	// Model is the chat model to use.
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService answers prompts with /chat/completions.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a chat completion client.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.APIKey == "" && strings.Contains(cfg.BaseURL, "api.openai.com") {
		return nil, fmt.Errorf("openai: API key is required")
	}

	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Generate answers a single user prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.complete(ctx, []driven.ChatMessage{{Role: "user", Content: prompt}},
		driven.ChatOptions{MaxTokens: opts.MaxTokens, Temperature: opts.Temperature}, opts.StopWords)
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return s.complete(ctx, messages, opts, nil)
}

func (s *LLMService) complete(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
	stop []string,
) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       s.model,
		Messages:    make([]chatCompletionMsg, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        stop,
	}
	for i, m := range messages {
		reqBody.Messages[i] = chatCompletionMsg{Role: m.Role, Content: m.Content}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}
	var out chatCompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out.Error != nil {
		return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai error (status %d)", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}
	return out.Choices[0].Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the /models endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *LLMService) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}
