package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	configfile "github.com/custodia-labs/athena/internal/adapters/driven/config/file"
	"github.com/custodia-labs/athena/internal/adapters/driven/embedding/cache"
	ollamaembed "github.com/custodia-labs/athena/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/athena/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/athena/internal/adapters/driven/embedding/ratelimit"
	ollamallm "github.com/custodia-labs/athena/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/athena/internal/adapters/driven/llm/openai"
	storagefile "github.com/custodia-labs/athena/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/athena/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/athena/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/athena/internal/adapters/driving/cli"
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/core/services"
	"github.com/custodia-labs/athena/internal/extractors"
	"github.com/custodia-labs/athena/internal/logger"
	"github.com/custodia-labs/athena/internal/metrics"
	"github.com/custodia-labs/athena/internal/postprocessors"
)

// redisKeyPrefix namespaces cached vectors in a shared Redis.
const redisKeyPrefix = "athena:emb:"

// openSettings loads the config file without validating it, so that
// `config set` can repair an invalid file.
func openSettings(configPath string) (driving.SettingsService, error) {
	store, err := configfile.NewConfigStore(configPath)
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store), nil
}

// buildServices wires storage, embedding, retrieval, ingestion and answering.
func buildServices(ctx context.Context, settings driving.SettingsService) (*cli.Services, error) {
	cfg, err := settings.Get()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*cli.Services, error) {
		_ = closeAll()
		return nil, err
	}

	recorder := metrics.NewRecorder()

	snapshots, state, closeStorage, err := openStorage(cfg.Storage)
	if err != nil {
		return fail(err)
	}
	if closeStorage != nil {
		closers = append(closers, closeStorage)
	}

	embedder, err := newEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, embedder.Close)

	pipeline, err := postprocessors.NewStandardPipeline(cfg.Chunker)
	if err != nil {
		return fail(err)
	}

	store := services.NewEmbeddingStore(snapshots, recorder)
	retrieval := services.NewRetrievalService(store, embedder, cfg.Embedding.Timeout, cfg.Retrieval, recorder)
	ingest := services.NewIngestService(services.IngestConfig{
		PolicyDir:    cfg.PolicyDir,
		Extractors:   extractors.NewDefaultRegistry(cfg.Chunker.VirtualPageChars),
		Pipeline:     pipeline,
		Store:        store,
		Embedding:    embedder,
		EmbedTimeout: cfg.Embedding.Timeout,
		State:        state,
		Metrics:      recorder,
	})

	llm := newLLM(cfg.LLM)
	if llm != nil {
		closers = append(closers, llm.Close)
	}
	answer := services.NewAnswerService(retrieval, llm, driven.ChatOptions{
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if prompts, err := configfile.NewPromptStore("", services.DefaultPrompts()); err != nil {
		logger.Warn("Using built-in prompts: %v", err)
	} else {
		answer.SetPromptStore(prompts)
	}

	return &cli.Services{
		Ingest:    ingest,
		Retrieval: retrieval,
		Answer:    answer,
		Scheduler: services.NewIngestScheduler(ingest, cfg.Ingest.Interval, logPass),
		PolicyDir: cfg.PolicyDir,
		Metrics:   recorder.Handler(),
		Close:     closeAll,
	}, nil
}

// openStorage returns the snapshot and ingest-state stores for the backend.
// The returned close function is nil when nothing needs releasing.
func openStorage(cfg domain.StorageSettings) (driven.SnapshotStore, driven.IngestStateStore, func() error, error) {
	switch cfg.Backend {
	case domain.StorageSQLite:
		db, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return db.SnapshotStore(), db.IngestStateStore(), db.Close, nil
	case domain.StorageMemory:
		return memory.NewSnapshotStore(), memory.NewIngestStateStore(), nil, nil
	default:
		snapshots, err := storagefile.NewSnapshotStore(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		state, err := storagefile.NewIngestStateStore(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return snapshots, state, nil, nil
	}
}

// newEmbedder builds the provider client and applies rate limiting and caching.
func newEmbedder(ctx context.Context, cfg domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	var inner driven.EmbeddingService
	switch cfg.Provider {
	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  apiKey(cfg.APIKeyEnv),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding provider: %w", err)
		}
		inner = svc
	default:
		inner = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	}

	limited := ratelimit.Wrap(inner, ratelimit.Config{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})

	switch cfg.Cache {
	case domain.CacheMemory:
		return cache.New(limited, cache.NewMemoryBackend(cfg.CacheTTL)), nil
	case domain.CacheRedis:
		backend, err := cache.NewRedisBackend(ctx, cache.RedisConfig{
			Addr:      cfg.RedisAddr,
			TTL:       cfg.CacheTTL,
			KeyPrefix: redisKeyPrefix,
		})
		if err != nil {
			logger.Warn("Embedding cache disabled: %v", err)
			return limited, nil
		}
		return cache.New(limited, backend), nil
	default:
		return limited, nil
	}
}

// newLLM returns nil when the configured provider cannot be used; answering
// then fails with domain.ErrLLMUnavailable while retrieval keeps working.
func newLLM(cfg domain.LLMSettings) driven.LLMService {
	switch cfg.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	default:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  apiKey(cfg.APIKeyEnv),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			logger.Warn("LLM disabled: %v", err)
			return nil
		}
		return svc
	}
}

func apiKey(env string) string {
	if env == "" {
		return ""
	}
	return os.Getenv(env)
}

// logPass reports scheduled passes that changed the store.
func logPass(report *domain.IngestReport, err error) {
	if err != nil || report == nil || !report.Mutated() {
		return
	}
	logger.Info("Ingest pass: %d new, %d changed, %d removed, %d failed",
		report.Unseen, report.Changed, report.Removed, report.Failed)
}
