package postprocessors

import (
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/postprocessors/chunker"
	"github.com/custodia-labs/athena/internal/postprocessors/tagger"
)

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("tagger", func(map[string]any) (driven.PostProcessor, error) {
		return tagger.New(), nil
	})
}

// NewStandardPipeline builds the chunker then tagger pipeline from settings.
func NewStandardPipeline(cfg domain.ChunkerSettings) (*Pipeline, error) {
	if cfg.Overlap >= cfg.ChunkSize {
		return nil, domain.ErrInvalidOverlap
	}
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(
		Stage{Name: "chunker", Config: map[string]any{
			"chunk_size": cfg.ChunkSize,
			"overlap":    cfg.Overlap,
		}},
		Stage{Name: "tagger"},
	)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 450)
//   - overlap (int): Overlapping characters between chunks (default: 100)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig extracts an int from a generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
