package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onePage(s string) []string { return []string{s} }

func TestExtractor_UTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "politica.txt")
	require.NoError(t, os.WriteFile(path, []byte("Política de férias"), 0o600))

	pages, err := New(onePage).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Política de férias"}, pages)
}

func TestExtractor_Latin1Fallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legado.txt")
	// "férias" in ISO-8859-1.
	require.NoError(t, os.WriteFile(path, []byte{'f', 0xE9, 'r', 'i', 'a', 's'}, 0o600))

	pages, err := New(onePage).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"férias"}, pages)
}

func TestExtractor_MissingFile(t *testing.T) {
	_, err := New(onePage).Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestExtractor_Extensions(t *testing.T) {
	assert.Equal(t, []string{".txt"}, New(onePage).Extensions())
}
