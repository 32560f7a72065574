package domain

import (
	"fmt"
	"time"
)

// AIProvider identifies a model backend for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or any compatible server (LM Studio, vLLM).
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// StorageBackend selects where the snapshot and ingest state live.
type StorageBackend string

// Available storage backends.
const (
	StorageFile   StorageBackend = "file"
	StorageSQLite StorageBackend = "sqlite"
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageFile, StorageSQLite, StorageMemory:
		return true
	default:
		return false
	}
}

// CacheBackend selects the embedding cache.
type CacheBackend string

// Available cache backends.
const (
	CacheNone   CacheBackend = "none"
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

// IsValid returns true if the cache backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheNone, CacheMemory, CacheRedis:
		return true
	default:
		return false
	}
}

// Settings is the typed application configuration.
type Settings struct {
	PolicyDir string
	Storage   StorageSettings
	Chunker   ChunkerSettings
	Embedding EmbeddingSettings
	Retrieval RetrievalSettings
	Ingest    IngestSettings
	LLM       LLMSettings
}

// StorageSettings configures persistence.
type StorageSettings struct {
	Backend StorageBackend
	DataDir string
}

// ChunkerSettings configures page splitting.
type ChunkerSettings struct {
	ChunkSize int
	Overlap   int

	// VirtualPageChars bounds synthetic pages for formats without pagination.
	VirtualPageChars int
}

// EmbeddingSettings configures the embedding model and its decorators.
type EmbeddingSettings struct {
	Provider  AIProvider
	BaseURL   string
	Model     string
	APIKeyEnv string

	// Timeout is the hard deadline of a single embedding call.
	Timeout time.Duration

	// RequestsPerSecond of zero disables rate limiting.
	RequestsPerSecond float64
	Burst             int

	Cache     CacheBackend
	RedisAddr string
	CacheTTL  time.Duration
}

// RetrievalSettings are the defaults and heuristic knobs of context assembly.
type RetrievalSettings struct {
	K            int
	MaxChars     int
	MaxPerSource int

	// DominanceThreshold is the minimum top score for narrowing to a single
	// source when the query names no document.
	DominanceThreshold float64

	// DominanceMargin is how far the top score must lead the best chunk of
	// any other source.
	DominanceMargin float64

	MaxPreferredSources int
	SummaryExtraPages   int
	SummaryMinPerSource int
}

// IngestSettings configures background re-scans.
type IngestSettings struct {
	Interval time.Duration
}

// LLMSettings configures the answering model.
type LLMSettings struct {
	Provider    AIProvider
	BaseURL     string
	Model       string
	APIKeyEnv   string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultSettings returns sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		PolicyDir: "policies",
		Storage: StorageSettings{
			Backend: StorageFile,
			DataDir: "data",
		},
		Chunker: ChunkerSettings{
			ChunkSize:        450,
			Overlap:          100,
			VirtualPageChars: 2500,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   30 * time.Second,
			Burst:     1,
			Cache:     CacheNone,
			RedisAddr: "localhost:6379",
			CacheTTL:  7 * 24 * time.Hour,
		},
		Retrieval: DefaultRetrievalSettings(),
		Ingest: IngestSettings{
			Interval: 30 * time.Second,
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			BaseURL:     "http://localhost:1234/v1",
			Model:       "phi-3.5-mini-instruct",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.1,
			MaxTokens:   700,
			Timeout:     120 * time.Second,
		},
	}
}

// DefaultRetrievalSettings returns the assembly defaults.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		K:                   5,
		MaxChars:            6000,
		MaxPerSource:        4,
		DominanceThreshold:  0.60,
		DominanceMargin:     0.08,
		MaxPreferredSources: 3,
		SummaryExtraPages:   7,
		SummaryMinPerSource: 50,
	}
}

// Validate checks the settings for values that would break an operation.
func (s Settings) Validate() error {
	if s.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunker.chunk_size must be positive", ErrInvalidInput)
	}
	if s.Chunker.Overlap < 0 {
		return fmt.Errorf("%w: chunker.overlap must not be negative", ErrInvalidInput)
	}
	if s.Chunker.Overlap >= s.Chunker.ChunkSize {
		return ErrInvalidOverlap
	}
	if s.Chunker.VirtualPageChars <= 0 {
		return fmt.Errorf("%w: extractor.virtual_page_chars must be positive", ErrInvalidInput)
	}
	if !s.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidInput, s.Storage.Backend)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if !s.Embedding.Cache.IsValid() {
		return fmt.Errorf("%w: unknown embedding cache %q", ErrInvalidInput, s.Embedding.Cache)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	r := s.Retrieval
	if r.DominanceThreshold < 0 || r.DominanceThreshold > 1 {
		return fmt.Errorf("%w: retrieval.dominance_threshold must be within [0,1]", ErrInvalidInput)
	}
	if r.DominanceMargin < 0 || r.DominanceMargin > 1 {
		return fmt.Errorf("%w: retrieval.dominance_margin must be within [0,1]", ErrInvalidInput)
	}
	return nil
}
