package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"culld/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startWatcher spins up a watcher with a short debounce over a fresh temp
// dir. The sleep gives fsnotify time to register watches before the test
// starts writing.
func startWatcher(t *testing.T, debounce time.Duration) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := New(debounce)
	require.NoError(t, err)
	require.NoError(t, w.Watch(dir))
	t.Cleanup(w.Stop)
	time.Sleep(100 * time.Millisecond)
	return w, dir
}

func waitStale(t *testing.T, w *Watcher) Notification {
	t.Helper()
	select {
	case n, ok := <-w.Stale():
		require.True(t, ok, "notification channel closed unexpectedly")
		return n
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for staleness notification")
		return Notification{}
	}
}

func expectQuiet(t *testing.T, w *Watcher, within time.Duration) {
	t.Helper()
	select {
	case n := <-w.Stale():
		t.Fatalf("unexpected staleness notification: %+v", n)
	case <-time.After(within):
	}
}

func TestWatcherNotifiesOnNewImage(t *testing.T) {
	w, dir := startWatcher(t, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.png"), []byte("png"), 0o644))

	n := waitStale(t, w)
	assert.Equal(t, dir, n.Root)
	assert.GreaterOrEqual(t, n.Changes, 1)
	assert.False(t, n.At.IsZero())
}

func TestWatcherIgnoresNonImageFiles(t *testing.T) {
	w, dir := startWatcher(t, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shot.png.rating"), []byte("4"), 0o644))
	expectQuiet(t, w, 500*time.Millisecond)

	// The watcher is still alive and reacts to a real image
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shot.png"), []byte("png"), 0o644))
	waitStale(t, w)
}

func TestWatcherCoalescesBursts(t *testing.T) {
	w, dir := startWatcher(t, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "burst"+string(rune('a'+i))+".jpg")
		require.NoError(t, os.WriteFile(name, []byte("jpg"), 0o644))
	}

	n := waitStale(t, w)
	assert.GreaterOrEqual(t, n.Changes, 5, "burst must coalesce into one notification")
	expectQuiet(t, w, 400*time.Millisecond)
}

func TestWatcherNotifiesOnRemovedImage(t *testing.T) {
	dir := t.TempDir()
	victim := filepath.Join(dir, "victim.png")
	require.NoError(t, os.WriteFile(victim, []byte("png"), 0o644))

	w, err := New(50 * time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Watch(dir))
	t.Cleanup(w.Stop)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Remove(victim))
	waitStale(t, w)
}

func TestWatcherFollowsNewSubdirectories(t *testing.T) {
	w, dir := startWatcher(t, 50*time.Millisecond)

	sub := filepath.Join(dir, "roll2")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// The new directory itself is stale: its contents are unknown
	waitStale(t, w)

	// And it is now under watch, so files inside it notify too
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.png"), []byte("png"), 0o644))
	waitStale(t, w)
}

func TestWatcherStop(t *testing.T) {
	w, _ := startWatcher(t, 50*time.Millisecond)
	require.True(t, w.IsRunning())

	w.Stop()
	assert.False(t, w.IsRunning())
	w.Stop() // idempotent

	select {
	case _, ok := <-w.Stale():
		assert.False(t, ok, "notification channel should close on stop")
	case <-time.After(time.Second):
		t.Error("timeout waiting for notification channel to close")
	}
}

func TestWatchRejectsBadRoots(t *testing.T) {
	w, err := New(0)
	require.NoError(t, err)
	err = w.Watch(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsNotADirectory(err))

	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	w2, err := New(0)
	require.NoError(t, err)
	err = w2.Watch(file)
	require.Error(t, err)
	assert.True(t, errors.IsNotADirectory(err))
}

func TestWatchTwiceFails(t *testing.T) {
	w, dir := startWatcher(t, 50*time.Millisecond)
	err := w.Watch(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}
