package site

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// watchUntilRebuilt starts Watch on dir and rewrites site.yml until the
// first rebuild happens. It returns the rebuild counter and a stop function
// that cancels Watch and waits for it to return.
func watchUntilRebuilt(t *testing.T, dir string, ignore []string, rebuild func()) (*atomic.Int32, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	var count atomic.Int32
	rebuilt := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{dir}, ignore, 10*time.Millisecond, nil, func() {
			count.Add(1)
			if rebuild != nil {
				rebuild()
			}
			select {
			case rebuilt <- struct{}{}:
			default:
			}
		})
	}()

	// The watcher registers asynchronously, so keep touching the file.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for waiting := true; waiting; {
		select {
		case <-rebuilt:
			waiting = false
		case <-tick.C:
			require.NoError(t, os.WriteFile(filepath.Join(dir, SiteFile), []byte("name: Grace\n"), 0644))
		case <-deadline:
			cancel()
			t.Fatal("no rebuild after file change")
		}
	}

	stop := func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Watch did not return after cancel")
		}
	}
	return &count, stop
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	dir := writeFiles(t, map[string]string{SiteFile: "name: Ada\n"})

	count, stop := watchUntilRebuilt(t, dir, nil, nil)
	stop()

	assert.GreaterOrEqual(t, count.Load(), int32(1))
}

func TestWatch_IgnoresOwnOutput(t *testing.T) {
	dir := writeFiles(t, map[string]string{SiteFile: "name: Ada\n"})
	out := filepath.Join(dir, "index.html")

	var writes atomic.Int32
	count, stop := watchUntilRebuilt(t, dir, []string{out}, func() {
		writes.Add(1)
		if err := os.WriteFile(out, []byte("<html></html>"), 0644); err != nil {
			t.Error(err)
		}
	})
	defer stop()

	// Let a rebuild from a late site.yml write finish before sampling.
	time.Sleep(200 * time.Millisecond)
	settled := count.Load()
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, settled, count.Load(), "writing the output must not trigger another rebuild")
	assert.Equal(t, count.Load(), writes.Load())
}

func TestWatch_IgnoreMatchesRelativePath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	assert.Equal(t, cleanPath(filepath.Join(dir, "index.html")), cleanPath("index.html"))
	assert.Equal(t, cleanPath(filepath.Join(dir, "index.html")), cleanPath("./sub/../index.html"))
}

func TestWatch_NothingLocal(t *testing.T) {
	err := Watch(context.Background(), []string{"", "https://example.org/config"}, nil, time.Millisecond, nil, func() {})
	assert.ErrorIs(t, err, ErrNothingToWatch)
}
