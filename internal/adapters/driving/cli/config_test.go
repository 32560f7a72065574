package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

func TestConfigShowCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"config", "show"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Configuration: /tmp/athena/config.toml")
	assert.Contains(t, out, "Chunk size: 450")
	assert.Contains(t, out, "Overlap: 100")
	assert.Contains(t, out, "Max chars: 6000")
	assert.Contains(t, out, "Model: (provider default)")
}

func TestConfigCmd_DefaultsToShow(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"config"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[Retrieval]")
}

func TestConfigSetCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"config", "set", "retrieval.k", "8"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "8", ts.settings.values["retrieval.k"])
	assert.Contains(t, buf.String(), "Set retrieval.k = 8")
}

func TestConfigSetCmd_Rejected(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	ts.settings.setErr = domain.ErrInvalidOverlap

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"config", "set", "chunker.overlap", "500"})

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, domain.ErrInvalidOverlap)
}

func TestConfigKeysCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"config", "keys"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "chunker.chunk_size\nretrieval.k\n", buf.String())
}

func TestDescribeKeyEnv(t *testing.T) {
	t.Setenv("ATHENA_TEST_KEY", "sk-1234567890abcdef")

	assert.Equal(t, "(none)", describeKeyEnv(""))
	assert.Equal(t, "$ATHENA_TEST_KEY (sk-1...cdef)", describeKeyEnv("ATHENA_TEST_KEY"))
	assert.Equal(t, "$ATHENA_TEST_UNSET (not set)", describeKeyEnv("ATHENA_TEST_UNSET"))
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Short key", input: "abc123", expected: "****"},
		{name: "Exactly 8 chars", input: "12345678", expected: "****"},
		{name: "Long key", input: "sk-1234567890abcdef", expected: "sk-1...cdef"},
		{name: "Empty key", input: "", expected: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}
