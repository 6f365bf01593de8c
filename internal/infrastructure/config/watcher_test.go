package config

import (
	"testing"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/testutil"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := testutil.TempDir(t)
	store := NewPresetStore(dir)

	watcher, err := NewPresetWatcher(store, WatcherConfig{
		DebounceDuration: 20 * time.Millisecond,
		BufferSize:       4,
	})
	testutil.AssertNoError(t, err)
	defer watcher.Close()

	testutil.AssertNoError(t, watcher.Start())

	testutil.WriteFile(t, dir, "lab.yaml", `
name: lab
config:
  strategy: binary
  min_tokens: 1000
  max_tokens: 64000
  precision: 500
  max_attempts: 20
  request_timeout: 30s
  retry_count: 1
`)

	select {
	case <-watcher.Reloads():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for preset reload")
	}

	_, err = store.Get("lab")
	testutil.AssertNoError(t, err)
}

func TestWatcherIgnoresNonYAML(t *testing.T) {
	dir := testutil.TempDir(t)
	store := NewPresetStore(dir)

	watcher, err := NewPresetWatcher(store, WatcherConfig{
		DebounceDuration: 20 * time.Millisecond,
	})
	testutil.AssertNoError(t, err)
	defer watcher.Close()

	testutil.AssertNoError(t, watcher.Start())

	testutil.WriteFile(t, dir, "notes.txt", "not a preset")

	select {
	case <-watcher.Reloads():
		t.Fatal("unexpected reload for non-yaml file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	store := NewPresetStore(testutil.TempDir(t))
	watcher, err := NewPresetWatcher(store, DefaultWatcherConfig())
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, watcher.Start())
	testutil.AssertNoError(t, watcher.Close())
	testutil.AssertNoError(t, watcher.Close())
}

func TestWatcherMissingDirectory(t *testing.T) {
	store := NewPresetStore("/nonexistent/preset/dir")
	watcher, err := NewPresetWatcher(store, DefaultWatcherConfig())
	testutil.AssertNoError(t, err)
	defer watcher.Close()

	// Watching a missing directory is not an error; the store serves
	// builtins only.
	testutil.AssertNoError(t, watcher.Start())
}
