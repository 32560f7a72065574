package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extensions(t *testing.T) {
	assert.Equal(t, []string{".pdf"}, New().Extensions())
}

func TestExtractor_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 not really"), 0o600))

	_, err := New().Extract(context.Background(), path)
	assert.Error(t, err)
}

func TestExtractor_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	assert.Error(t, err)
}
