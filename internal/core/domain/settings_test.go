package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings_Valid(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	assert.Equal(t, 450, s.Chunker.ChunkSize)
	assert.Equal(t, 100, s.Chunker.Overlap)
	assert.Equal(t, 2500, s.Chunker.VirtualPageChars)
	assert.InDelta(t, 0.60, s.Retrieval.DominanceThreshold, 1e-9)
	assert.Equal(t, 3, s.Retrieval.MaxPreferredSources)
	assert.Equal(t, 7, s.Retrieval.SummaryExtraPages)
	assert.Equal(t, 50, s.Retrieval.SummaryMinPerSource)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		target error
	}{
		{"overlap equals chunk size", func(s *Settings) { s.Chunker.Overlap = s.Chunker.ChunkSize }, ErrInvalidOverlap},
		{"zero chunk size", func(s *Settings) { s.Chunker.ChunkSize = 0 }, ErrInvalidInput},
		{"negative overlap", func(s *Settings) { s.Chunker.Overlap = -1 }, ErrInvalidInput},
		{"unknown backend", func(s *Settings) { s.Storage.Backend = "s3" }, ErrInvalidInput},
		{"unknown provider", func(s *Settings) { s.Embedding.Provider = "anthropic" }, ErrInvalidInput},
		{"unknown cache", func(s *Settings) { s.Embedding.Cache = "memcached" }, ErrInvalidInput},
		{"threshold above one", func(s *Settings) { s.Retrieval.DominanceThreshold = 1.5 }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), tt.target)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeQA, m)

	m, err = ParseMode("summary")
	require.NoError(t, err)
	assert.Equal(t, ModeSummary, m)

	_, err = ParseMode("essay")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.False(t, AIProvider("anthropic").IsValid())
}
