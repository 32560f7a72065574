package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer written from the command goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (m *mockScheduler) triggerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.triggers
}

func TestWatchCmd_RequiresScheduler(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	schedulerService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"watch"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler not configured")
}

func TestWatchCmd_TriggersOnFileChanges(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	policyDir = dir

	out := &syncBuffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"watch", "--debounce", "20ms"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rootCmd.ExecuteContext(ctx) }()

	require.Eventually(t, ts.scheduler.wasStarted, 2*time.Second, 10*time.Millisecond)

	n := 0
	assert.Eventually(t, func() bool {
		n++
		_ = os.WriteFile(filepath.Join(dir, fmt.Sprintf("policy-%d.txt", n)), []byte("texto"), 0o600)
		return ts.scheduler.triggerCount() > 0
	}, 3*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}

	assert.Contains(t, out.String(), "Watching "+dir)
	ts.scheduler.mu.Lock()
	assert.True(t, ts.scheduler.stopped)
	ts.scheduler.mu.Unlock()
}

func TestWatchCmd_Flags(t *testing.T) {
	assert.NotNil(t, watchCmd.Flags().Lookup("metrics-addr"))
	assert.NotNil(t, watchCmd.Flags().Lookup("debounce"))
}
