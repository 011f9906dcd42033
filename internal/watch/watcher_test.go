package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain ensures Stop leaves no goroutines behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func startWatcher(t *testing.T, paths []string, debounce time.Duration) (*Watcher, *recorder) {
	t.Helper()
	rec := &recorder{}
	w, err := New(paths, debounce, rec.record)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w, rec
}

func TestNew_Validation(t *testing.T) {
	noop := func(string) {}

	_, err := New(nil, time.Second, noop)
	assert.Error(t, err)

	_, err = New([]string{"a.rsmd"}, time.Second, nil)
	assert.Error(t, err)

	_, err = New([]string{"a.rsmd"}, 0, noop)
	assert.Error(t, err)
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.rsmd")
	writeFile(t, path, "start\n")

	w, rec := startWatcher(t, []string{path}, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		writeFile(t, path, "edit\n")
	}

	require.Eventually(t, func() bool { return len(rec.calls()) == 1 }, 3*time.Second, 10*time.Millisecond)

	time.Sleep(400 * time.Millisecond)
	calls := rec.calls()
	require.Len(t, calls, 1)
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	assert.Equal(t, abs, calls[0])

	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Events, 1)
	assert.Equal(t, 1, stats.Callbacks)
	assert.Equal(t, abs, stats.LastEventPath)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "doc.rsmd")
	other := filepath.Join(dir, "other.txt")
	writeFile(t, watched, "x\n")

	w, rec := startWatcher(t, []string{watched}, 20*time.Millisecond)

	writeFile(t, other, "noise\n")
	time.Sleep(200 * time.Millisecond)

	assert.Empty(t, rec.calls())
	assert.Equal(t, 0, w.Stats().Events)
}

func TestWatcher_RenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.rsmd")
	writeFile(t, path, "v1\n")

	_, rec := startWatcher(t, []string{path}, 30*time.Millisecond)

	tmp := filepath.Join(dir, ".doc.rsmd.swp")
	writeFile(t, tmp, "v2\n")
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool { return len(rec.calls()) >= 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestWatcher_DeletedFileSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.rsmd")
	writeFile(t, path, "v1\n")

	w, rec := startWatcher(t, []string{path}, 30*time.Millisecond)

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool { return w.Stats().Skipped == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Empty(t, rec.calls())
}

func TestWatcher_MultipleFiles(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	a := filepath.Join(dirA, "a.rsmd")
	b := filepath.Join(dirB, "b.rsmd")
	writeFile(t, a, "a\n")
	writeFile(t, b, "b\n")

	_, rec := startWatcher(t, []string{a, b}, 30*time.Millisecond)

	writeFile(t, a, "a2\n")
	writeFile(t, b, "b2\n")

	require.Eventually(t, func() bool { return len(rec.calls()) == 2 }, 3*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{a, b}, rec.calls())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.rsmd")
	writeFile(t, path, "x\n")

	w, err := New([]string{path}, time.Second, func(string) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()), "second Start is a no-op")

	w.Stop()
	w.Stop()

	assert.ErrorIs(t, w.Start(context.Background()), ErrStopped)
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.rsmd")
	w, err := New([]string{path}, time.Second, func(string) {})
	require.NoError(t, err)
	w.Stop()
}

func TestWatcher_ContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.rsmd")
	writeFile(t, path, "x\n")

	rec := &recorder{}
	w, err := New([]string{path}, 20*time.Millisecond, rec.record)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("event loop did not exit after cancel")
	}

	writeFile(t, path, "y\n")
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.calls())
	w.Stop()
}

func TestTickFor(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, tickFor(time.Millisecond))
	assert.Equal(t, 40*time.Millisecond, tickFor(200*time.Millisecond))
	assert.Equal(t, 100*time.Millisecond, tickFor(time.Second))
}
