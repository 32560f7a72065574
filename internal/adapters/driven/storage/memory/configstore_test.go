package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SeedIsCopied(t *testing.T) {
	seed := map[string]any{"retrieval.k": 3}
	store := NewConfigStore(seed)
	seed["retrieval.k"] = 9

	assert.Equal(t, 3, store.GetInt("retrieval.k"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"s":     "athena",
		"i":     int64(42),
		"f":     0.6,
		"whole": 7.0,
		"b":     true,
	})

	assert.Equal(t, "athena", store.GetString("s"))
	assert.Equal(t, "", store.GetString("i"))
	assert.Equal(t, 42, store.GetInt("i"))
	assert.Equal(t, 7, store.GetInt("whole"))
	assert.Equal(t, 0, store.GetInt("f"))
	assert.InDelta(t, 0.6, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 42.0, store.GetFloat("i"), 1e-9)
	assert.True(t, store.GetBool("b"))
	assert.False(t, store.GetBool("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_SetOverwrites(t *testing.T) {
	store := NewConfigStore(nil)
	require.NoError(t, store.Set("llm.model", "phi"))
	require.NoError(t, store.Set("llm.model", "qwen"))
	assert.Equal(t, "qwen", store.GetString("llm.model"))
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore(nil)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("k", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("k")
		}()
	}
	wg.Wait()
	_, ok := store.Get("k")
	assert.True(t, ok)
}
