package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, path string) (<-chan Event, *FileWatcher) {
	t.Helper()
	w, err := New(path, 50*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	events, err := w.Start(ctx)
	require.NoError(t, err)
	return events, w
}

func TestFileWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keyword_library.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"keywords":{}}`), 0644))

	events, _ := startWatcher(t, path)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"keywords":{"a":[]}}`), 0644))
	}

	select {
	case ev := <-events:
		assert.Equal(t, path, ev.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change event")
	}

	select {
	case <-events:
		t.Fatal("burst of writes should produce a single event")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keyword_library.json")

	events, _ := startWatcher(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme_prompts.json"), []byte(`{}`), 0644))

	select {
	case <-events:
		t.Fatal("unexpected event for another file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileWatcherClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyword_library.json")
	events, w := startWatcher(t, path)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, open := <-events
	assert.False(t, open)

	_, err := w.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}
