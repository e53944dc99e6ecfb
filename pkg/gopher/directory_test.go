package gopher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/gopherd/pkg/store"
	storebadger "github.com/marmos91/gopherd/pkg/store/badger"
	storefs "github.com/marmos91/gopherd/pkg/store/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0644))
}

// newTree builds:
//
//	a.txt
//	b.gif
//	.hidden
//	sub/c.mp3
//	indexed/.gopher
//	indexed/x.txt
func newTree(t *testing.T) store.Store {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "b.gif"), "GIF89a")
	writeFile(t, filepath.Join(dir, ".hidden"), "secret")
	writeFile(t, filepath.Join(dir, "sub", "c.mp3"), "ID3")
	writeFile(t, filepath.Join(dir, "indexed", "x.txt"), "x")
	writeFile(t, filepath.Join(dir, "indexed", ".gopher"), `description: Handpicked files
entries:
  - ["The X file", "x.txt"]
  - {label: "Back to the pictures", selector: "../b.gif"}
`)

	st, err := storefs.New(context.Background(), storefs.Config{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestDirectoryHandler(t *testing.T, st store.Store, root, selector string) *DirectoryHandler {
	t.Helper()
	cfg := newHandlerConfig([]HandlerOption{WithSettings(Settings{Host: "gopher.test", Port: 7070})})
	h, err := newDirectoryHandler(context.Background(), st, root, selector, cfg, func() time.Time { return fixedNow })
	require.NoError(t, err)
	return h
}

func menuLines(b []byte) []string {
	return strings.Split(strings.TrimSuffix(string(b), "\r\n"), "\r\n")
}

func TestNewDirectoryHandlerRequiresDirectory(t *testing.T) {
	st := newTree(t)
	ctx := context.Background()

	_, err := NewDirectoryHandler(ctx, st, "missing", "/m")
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	_, err = NewDirectoryHandler(ctx, st, "a.txt", "/m")
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	_, err = NewDirectoryHandler(ctx, st, "../elsewhere", "/m")
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	h, err := NewDirectoryHandler(ctx, st, ".", "/m")
	require.NoError(t, err)
	assert.Equal(t, ".", h.Root())
	assert.Equal(t, "/m", h.Selector())
}

func TestDirectoryMenuListsImmediateEntries(t *testing.T) {
	st := newTree(t)
	h := newTestDirectoryHandler(t, st, ".", "/docs")

	m, err := h.Menu(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0a.txt\t/docs/a.txt\tgopher.test\t7070",
		"gb.gif\t/docs/b.gif\tgopher.test\t7070",
		"1indexed\t/docs/indexed\tgopher.test\t7070",
		"1sub\t/docs/sub\tgopher.test\t7070",
		"i2024-05-01 12:30:00 +0000\t(NULL)\t(NULL)\t0",
	}, menuLines(m))
}

func TestDirectoryMenuUsesIndex(t *testing.T) {
	st := newTree(t)
	h := newTestDirectoryHandler(t, st, "indexed", "/docs/indexed")

	m, err := h.Menu(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"iHandpicked files\t(NULL)\t(NULL)\t0",
		"0The X file\t/docs/indexed/x.txt\tgopher.test\t7070",
		"gBack to the pictures\t/docs/b.gif\tgopher.test\t7070",
		"i2024-05-01 12:30:00 +0000\t(NULL)\t(NULL)\t0",
	}, menuLines(m))
}

func TestDirectoryRespondServesFileBytes(t *testing.T) {
	st := newTree(t)
	h := newTestDirectoryHandler(t, st, ".", "/docs")

	resp, err := h.Respond(context.Background(), []string{"sub/c.mp3"})
	require.NoError(t, err)
	require.True(t, resp.IsStream())

	var sb strings.Builder
	_, err = resp.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, "ID3", sb.String())
}

func TestDirectoryRespondRendersSubdirectory(t *testing.T) {
	st := newTree(t)
	h := newTestDirectoryHandler(t, st, ".", "/docs")

	resp, err := h.Respond(context.Background(), []string{"sub"})
	require.NoError(t, err)
	require.False(t, resp.IsStream())

	assert.Equal(t, []string{
		"sc.mp3\t/docs/sub/c.mp3\tgopher.test\t7070",
		"i2024-05-01 12:30:00 +0000\t(NULL)\t(NULL)\t0",
	}, menuLines(resp.Bytes()))
}

func TestDirectoryRespondRootWithEmptyCapture(t *testing.T) {
	st := newTree(t)
	h := newTestDirectoryHandler(t, st, ".", "/docs")

	resp, err := h.Respond(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Len(t, menuLines(resp.Bytes()), 5)
}

func TestDirectoryRespondMissing(t *testing.T) {
	st := newTree(t)
	h := newTestDirectoryHandler(t, st, ".", "/docs")

	_, err := h.Respond(context.Background(), []string{"nope.txt"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryRespondCannotEscape(t *testing.T) {
	st := newTree(t)
	h := newTestDirectoryHandler(t, st, "sub", "/sub")

	// Dot runs collapse, so the request stays inside sub.
	_, err := h.Respond(context.Background(), []string{"../a.txt"})
	assert.ErrorIs(t, err, ErrNotFound)
}

type brokenStore struct{ store.Store }

func (brokenStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, io.ErrUnexpectedEOF
}

func TestDirectoryRespondSurfacesStoreErrors(t *testing.T) {
	st := brokenStore{Store: newTree(t)}
	cfg := newHandlerConfig(nil)
	h, err := newDirectoryHandler(context.Background(), st, "sub", "/sub", cfg, time.Now)
	require.NoError(t, err)

	_, err = h.Respond(context.Background(), []string{"c.mp3"})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrNotFound)
}

const forgedName = "a\r\n1evil\tx\tevil.host\t70"

func newBadgerTree(t *testing.T, files map[string]string) store.Store {
	t.Helper()

	st, err := storebadger.New(context.Background(), storebadger.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	for name, content := range files {
		require.NoError(t, st.Put(context.Background(), name, []byte(content)))
	}
	return st
}

func TestDirectoryMenuSkipsNamesWithSeparators(t *testing.T) {
	st := newBadgerTree(t, map[string]string{
		"ok.txt":   "fine",
		forgedName: "forged",
	})
	h := newTestDirectoryHandler(t, st, ".", "/docs")

	m, err := h.Menu(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0ok.txt\t/docs/ok.txt\tgopher.test\t7070",
		"i2024-05-01 12:30:00 +0000\t(NULL)\t(NULL)\t0",
	}, menuLines(m))
}

func TestDirectoryMenuSkipsIndexSelectorsWithSeparators(t *testing.T) {
	st := newBadgerTree(t, map[string]string{
		"ok.txt": "fine",
		".gopher": `entries:
  - ["Good", "ok.txt"]
  - ["Bad", "x\r\n1evil\tx\tevil.host\t70"]
`,
	})
	h := newTestDirectoryHandler(t, st, ".", "/docs")

	m, err := h.Menu(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0Good\t/docs/ok.txt\tgopher.test\t7070",
		"i2024-05-01 12:30:00 +0000\t(NULL)\t(NULL)\t0",
	}, menuLines(m))
}
