//go:build linux || darwin

package gopher

import (
	"context"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	storefs "github.com/marmos91/gopherd/pkg/store/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFIFOTree(t *testing.T) *DirectoryHandler {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	require.NoError(t, syscall.Mkfifo(filepath.Join(dir, "pipe"), 0644))

	st, err := storefs.New(context.Background(), storefs.Config{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return newTestDirectoryHandler(t, st, ".", "/docs")
}

func TestDirectoryRespondRefusesFIFO(t *testing.T) {
	h := newFIFOTree(t)

	done := make(chan error, 1)
	go func() {
		resp, err := h.Respond(context.Background(), []string{"pipe"})
		_ = resp.Close()
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrNotFound)
	case <-time.After(5 * time.Second):
		t.Fatal("Respond blocked on a FIFO")
	}
}

func TestDirectoryMenuSkipsFIFO(t *testing.T) {
	h := newFIFOTree(t)

	m, err := h.Menu(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0a.txt\t/docs/a.txt\tgopher.test\t7070",
		"i2024-05-01 12:30:00 +0000\t(NULL)\t(NULL)\t0",
	}, menuLines(m))
}

func TestDirectoryIgnoresFIFOIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	require.NoError(t, syscall.Mkfifo(filepath.Join(dir, IndexFile), 0644))

	st, err := storefs.New(context.Background(), storefs.Config{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	type result struct {
		menu []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		cfg := newHandlerConfig([]HandlerOption{WithSettings(Settings{Host: "gopher.test", Port: 7070})})
		h, err := newDirectoryHandler(context.Background(), st, ".", "/docs", cfg, func() time.Time { return fixedNow })
		if err != nil {
			done <- result{err: err}
			return
		}
		m, err := h.Menu(context.Background())
		done <- result{menu: m, err: err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, []string{
			"0a.txt\t/docs/a.txt\tgopher.test\t7070",
			"i2024-05-01 12:30:00 +0000\t(NULL)\t(NULL)\t0",
		}, menuLines(r.menu))
	case <-time.After(5 * time.Second):
		t.Fatal("loading the index blocked on a FIFO")
	}
}
