package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(filepath.Join(t.TempDir(), ConfigFileName))
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_DefaultPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir, err := DefaultDir()
	require.NoError(t, err)

	store, err := NewConfigStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), store.Path())

	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr), "constructor must not create the file")
}

func TestConfigStore_ReadsNestedTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `
[policies]
dir = "/srv/policies"

[retrieval]
k = 8
dominance_threshold = 0.7
dominance_margin = 1

[embedding]
cache = "redis"
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	store, err := NewConfigStore(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/policies", store.GetString("policies.dir"))
	assert.Equal(t, 8, store.GetInt("retrieval.k"))
	assert.InDelta(t, 0.7, store.GetFloat("retrieval.dominance_threshold"), 1e-9)
	assert.InDelta(t, 1.0, store.GetFloat("retrieval.dominance_margin"), 1e-9)
	assert.Equal(t, "redis", store.GetString("embedding.cache"))
	assert.True(t, store.GetBool("embedding.enabled"))

	// Wrong types read as zero values.
	assert.Equal(t, 0, store.GetInt("policies.dir"))
	assert.Equal(t, "", store.GetString("retrieval.k"))
	assert.Zero(t, store.GetFloat("embedding.cache"))
}

func TestConfigStore_SetPersistsAsTables(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("retrieval.max_chars", 4000))
	require.NoError(t, store.Set("llm.model", "qwen2.5"))
	require.NoError(t, store.Set("llm.temperature", 0.2))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[retrieval]")
	assert.Contains(t, string(raw), "[llm]")

	reloaded, err := NewConfigStore(store.Path())
	require.NoError(t, err)
	assert.Equal(t, 4000, reloaded.GetInt("retrieval.max_chars"))
	assert.Equal(t, "qwen2.5", reloaded.GetString("llm.model"))
	assert.InDelta(t, 0.2, reloaded.GetFloat("llm.temperature"), 1e-9)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("test", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestConfigStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte{}, 0600))

	store, err := NewConfigStore(path)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("this is not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(path)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_Save_WriteError(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("test", "value"))

	// Replace the file with a directory so the rename fails.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(store.Path(), "x"), nil, 0600))

	assert.Error(t, store.Set("another", "value"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := "k.key" + string(rune('0'+i))
			_ = store.Set(key, i)
			_ = store.GetInt(key)
			_ = store.GetFloat(key)
		}()
	}
	wg.Wait()

	reloaded, err := NewConfigStore(store.Path())
	require.NoError(t, err)
	assert.Equal(t, 7, reloaded.GetInt("k.key7"))
}

func TestNestMap_InvertsFlatten(t *testing.T) {
	flat := map[string]any{"a.b.c": int64(1), "a.d": "x", "e": true}
	assert.Equal(t, flat, flattenMap(nestMap(flat), ""))
}
