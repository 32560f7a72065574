package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyPolicyDir           = "policies.dir"
	keyStorageBackend      = "storage.backend"
	keyStorageDataDir      = "storage.data_dir"
	keyChunkSize           = "chunker.chunk_size"
	keyChunkOverlap        = "chunker.overlap"
	keyVirtualPageChars    = "extractor.virtual_page_chars"
	keyEmbedProvider       = "embedding.provider"
	keyEmbedBaseURL        = "embedding.base_url"
	keyEmbedModel          = "embedding.model"
	keyEmbedAPIKeyEnv      = "embedding.api_key_env"
	keyEmbedTimeout        = "embedding.timeout_seconds"
	keyEmbedRPS            = "embedding.requests_per_second"
	keyEmbedBurst          = "embedding.burst"
	keyEmbedCache          = "embedding.cache"
	keyEmbedRedisAddr      = "embedding.redis_addr"
	keyEmbedCacheTTL       = "embedding.cache_ttl_hours"
	keyRetrievalK          = "retrieval.k"
	keyRetrievalMaxChars   = "retrieval.max_chars"
	keyRetrievalPerSource  = "retrieval.max_per_source"
	keyDominanceThreshold  = "retrieval.dominance_threshold"
	keyDominanceMargin     = "retrieval.dominance_margin"
	keyMaxPreferred        = "retrieval.max_preferred_sources"
	keySummaryExtraPages   = "retrieval.summary_extra_pages"
	keySummaryMinPerSource = "retrieval.summary_min_per_source"
	keyIngestInterval      = "ingest.interval_seconds"
	keyLLMProvider         = "llm.provider"
	keyLLMBaseURL          = "llm.base_url"
	keyLLMModel            = "llm.model"
	keyLLMAPIKeyEnv        = "llm.api_key_env"
	keyLLMTemperature      = "llm.temperature"
	keyLLMMaxTokens        = "llm.max_tokens"
	keyLLMTimeout          = "llm.timeout_seconds"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
)

var settingKinds = map[string]valueKind{
	keyPolicyDir:           kindString,
	keyStorageBackend:      kindString,
	keyStorageDataDir:      kindString,
	keyChunkSize:           kindInt,
	keyChunkOverlap:        kindInt,
	keyVirtualPageChars:    kindInt,
	keyEmbedProvider:       kindString,
	keyEmbedBaseURL:        kindString,
	keyEmbedModel:          kindString,
	keyEmbedAPIKeyEnv:      kindString,
	keyEmbedTimeout:        kindInt,
	keyEmbedRPS:            kindFloat,
	keyEmbedBurst:          kindInt,
	keyEmbedCache:          kindString,
	keyEmbedRedisAddr:      kindString,
	keyEmbedCacheTTL:       kindInt,
	keyRetrievalK:          kindInt,
	keyRetrievalMaxChars:   kindInt,
	keyRetrievalPerSource:  kindInt,
	keyDominanceThreshold:  kindFloat,
	keyDominanceMargin:     kindFloat,
	keyMaxPreferred:        kindInt,
	keySummaryExtraPages:   kindInt,
	keySummaryMinPerSource: kindInt,
	keyIngestInterval:      kindInt,
	keyLLMProvider:         kindString,
	keyLLMBaseURL:          kindString,
	keyLLMModel:            kindString,
	keyLLMAPIKeyEnv:        kindString,
	keyLLMTemperature:      kindFloat,
	keyLLMMaxTokens:        kindInt,
	keyLLMTimeout:          kindInt,
}

// configReader is the read side of driven.ConfigStore.
type configReader interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
}

// SettingsService materialises typed settings from the config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	return materialise(s.configStore)
}

// Set parses value according to the key's type and persists it. The change
// is rejected if it would make the settings invalid.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: %s expects a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	default:
		parsed = value
	}

	if _, err := materialise(overlay{configReader: s.configStore, key: key, value: parsed}); err != nil {
		return err
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists every recognised configuration key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func materialise(r configReader) (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		PolicyDir: getString(r, keyPolicyDir, d.PolicyDir),
		Storage: domain.StorageSettings{
			Backend: domain.StorageBackend(getString(r, keyStorageBackend, string(d.Storage.Backend))),
			DataDir: getString(r, keyStorageDataDir, d.Storage.DataDir),
		},
		Chunker: domain.ChunkerSettings{
			ChunkSize:        getInt(r, keyChunkSize, d.Chunker.ChunkSize),
			Overlap:          getIntExplicit(r, keyChunkOverlap, d.Chunker.Overlap),
			VirtualPageChars: getInt(r, keyVirtualPageChars, d.Chunker.VirtualPageChars),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.AIProvider(getString(r, keyEmbedProvider, string(d.Embedding.Provider))),
			BaseURL:           r.GetString(keyEmbedBaseURL),
			Model:             r.GetString(keyEmbedModel),
			APIKeyEnv:         getString(r, keyEmbedAPIKeyEnv, d.Embedding.APIKeyEnv),
			Timeout:           getSeconds(r, keyEmbedTimeout, d.Embedding.Timeout),
			RequestsPerSecond: getFloat(r, keyEmbedRPS, d.Embedding.RequestsPerSecond),
			Burst:             getInt(r, keyEmbedBurst, d.Embedding.Burst),
			Cache:             domain.CacheBackend(getString(r, keyEmbedCache, string(d.Embedding.Cache))),
			RedisAddr:         getString(r, keyEmbedRedisAddr, d.Embedding.RedisAddr),
			CacheTTL:          time.Duration(getInt(r, keyEmbedCacheTTL, int(d.Embedding.CacheTTL/time.Hour))) * time.Hour,
		},
		Retrieval: domain.RetrievalSettings{
			K:                   getInt(r, keyRetrievalK, d.Retrieval.K),
			MaxChars:            getInt(r, keyRetrievalMaxChars, d.Retrieval.MaxChars),
			MaxPerSource:        getInt(r, keyRetrievalPerSource, d.Retrieval.MaxPerSource),
			DominanceThreshold:  getFloat(r, keyDominanceThreshold, d.Retrieval.DominanceThreshold),
			DominanceMargin:     getFloat(r, keyDominanceMargin, d.Retrieval.DominanceMargin),
			MaxPreferredSources: getInt(r, keyMaxPreferred, d.Retrieval.MaxPreferredSources),
			SummaryExtraPages:   getIntExplicit(r, keySummaryExtraPages, d.Retrieval.SummaryExtraPages),
			SummaryMinPerSource: getInt(r, keySummaryMinPerSource, d.Retrieval.SummaryMinPerSource),
		},
		Ingest: domain.IngestSettings{
			Interval: time.Duration(getIntExplicit(r, keyIngestInterval, int(d.Ingest.Interval/time.Second))) * time.Second,
		},
		LLM: domain.LLMSettings{
			Provider:    domain.AIProvider(getString(r, keyLLMProvider, string(d.LLM.Provider))),
			BaseURL:     getString(r, keyLLMBaseURL, d.LLM.BaseURL),
			Model:       getString(r, keyLLMModel, d.LLM.Model),
			APIKeyEnv:   getString(r, keyLLMAPIKeyEnv, d.LLM.APIKeyEnv),
			Temperature: getFloat(r, keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   getInt(r, keyLLMMaxTokens, d.LLM.MaxTokens),
			Timeout:     getSeconds(r, keyLLMTimeout, d.LLM.Timeout),
		},
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Helper methods for reading config with defaults.

func getString(r configReader, key, defaultVal string) string {
	val := r.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getInt(r configReader, key string, defaultVal int) int {
	val := r.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntExplicit honours an explicit zero.
func getIntExplicit(r configReader, key string, defaultVal int) int {
	if _, exists := r.Get(key); !exists {
		return defaultVal
	}
	return r.GetInt(key)
}

func getFloat(r configReader, key string, defaultVal float64) float64 {
	if _, exists := r.Get(key); !exists {
		return defaultVal
	}
	return r.GetFloat(key)
}

func getSeconds(r configReader, key string, defaultVal time.Duration) time.Duration {
	return time.Duration(getInt(r, key, int(defaultVal/time.Second))) * time.Second
}

// overlay shows one pending value on top of the stored configuration.
type overlay struct {
	configReader
	key   string
	value any
}

func (o overlay) Get(key string) (any, bool) {
	if key == o.key {
		return o.value, true
	}
	return o.configReader.Get(key)
}

func (o overlay) GetString(key string) string {
	if key != o.key {
		return o.configReader.GetString(key)
	}
	s, _ := o.value.(string)
	return s
}

func (o overlay) GetInt(key string) int {
	if key != o.key {
		return o.configReader.GetInt(key)
	}
	n, _ := o.value.(int)
	return n
}

func (o overlay) GetFloat(key string) float64 {
	if key != o.key {
		return o.configReader.GetFloat(key)
	}
	f, _ := o.value.(float64)
	return f
}
