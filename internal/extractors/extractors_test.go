package extractors

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

func TestVirtualPages(t *testing.T) {
	assert.Empty(t, VirtualPages("", 10))
	assert.Equal(t, []string{"abc"}, VirtualPages("abc", 10))
	assert.Equal(t, []string{"ação", "ões"}, VirtualPages("açãoões", 4))

	pages := VirtualPages(strings.Repeat("x", 6000), 0)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], DefaultVirtualPageChars)
	assert.Len(t, pages[2], 1000)
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewDefaultRegistry(100)

	assert.Equal(t, []string{".docx", ".htm", ".html", ".markdown", ".md", ".pdf", ".txt"}, r.Extensions())
	assert.True(t, r.Supports("Policy.PDF"))
	assert.True(t, r.Supports("notes.md"))
	assert.False(t, r.Supports("planilha.xlsx"))

	_, err := r.Extract(context.Background(), "planilha.xlsx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_ExtractText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aviso.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("a", 250)), 0o600))

	pages, err := NewDefaultRegistry(100).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, pages, 3)
}
