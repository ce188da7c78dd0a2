package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherReportsDebouncedChanges(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "ecu.xdf")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(target, []byte("v0"), 0o644))

	w, err := New([]string{target}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, []string{target}, w.Files())

	changes := make(chan []string, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) {
			changes <- changed
		})
	}()

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	select {
	case got := <-changes:
		t.Fatalf("unexpected change report %v", got)
	case <-time.After(200 * time.Millisecond):
	}

	// A burst of writes is reported once.
	for i := range 3 {
		require.NoError(t, os.WriteFile(target, []byte{byte(i)}, 0o644))
	}
	select {
	case got := <-changes:
		assert.Equal(t, []string{target}, got)
	case <-time.After(3 * time.Second):
		t.Fatal("change not reported")
	}
	select {
	case got := <-changes:
		t.Fatalf("burst reported twice: %v", got)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcherSeesReplacedFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "stock.bin")
	require.NoError(t, os.WriteFile(target, []byte{1}, 0o644))

	w, err := New([]string{target}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	changes := make(chan []string, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(_ context.Context, changed []string) { changes <- changed })
	}()

	tmp := target + ".new"
	require.NoError(t, os.WriteFile(tmp, []byte{2}, 0o644))
	require.NoError(t, os.Rename(tmp, target))

	select {
	case got := <-changes:
		assert.Equal(t, []string{target}, got)
	case <-time.After(3 * time.Second):
		t.Fatal("replacement not reported")
	}
	cancel()
	<-done
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "gone", "ecu.xdf")})
	assert.Error(t, err)
}

func TestDue(t *testing.T) {
	w := &Watcher{debounce: time.Second, pending: map[string]time.Time{}}
	now := time.Now()
	w.pending["/b"] = now.Add(-2 * time.Second)
	w.pending["/a"] = now.Add(-time.Second)
	w.pending["/c"] = now

	assert.Equal(t, []string{"/a", "/b"}, w.due(now))
	assert.Len(t, w.pending, 1)
	assert.Empty(t, w.due(now))
}
