package badger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/marmos91/gopherd/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, prefix string) *BadgerStore {
	t.Helper()

	s, err := New(context.Background(), Config{InMemory: true, Prefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "readme.txt", []byte("hello")))
	require.NoError(t, s.Put(ctx, "pics/cat.jpg", []byte("JPEG")))
	require.NoError(t, s.Put(ctx, "pics/deep/dog.png", []byte("PNG")))

	return s
}

func sortedNames(entries []store.Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

func TestStatImplicitDirectories(t *testing.T) {
	s := newTestStore(t, "")
	ctx := context.Background()

	e, err := s.Stat(ctx, "pics")
	require.NoError(t, err)
	assert.True(t, e.Dir)

	e, err = s.Stat(ctx, "pics/deep")
	require.NoError(t, err)
	assert.True(t, e.Dir)

	e, err = s.Stat(ctx, "readme.txt")
	require.NoError(t, err)
	assert.False(t, e.Dir)
	assert.EqualValues(t, 5, e.Size)

	_, err = s.Stat(ctx, "pic")
	assert.ErrorIs(t, err, store.ErrNotExist)
}

func TestReadDirListsImmediateChildren(t *testing.T) {
	s := newTestStore(t, "")
	ctx := context.Background()

	root, err := s.ReadDir(ctx, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"pics", "readme.txt"}, sortedNames(root))

	pics, err := s.ReadDir(ctx, "/pics")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat.jpg", "deep"}, sortedNames(pics))

	_, err = s.ReadDir(ctx, "readme.txt")
	assert.ErrorIs(t, err, store.ErrNotDir)

	_, err = s.ReadDir(ctx, "nothing")
	assert.ErrorIs(t, err, store.ErrNotExist)
}

func TestOpen(t *testing.T) {
	s := newTestStore(t, "")
	ctx := context.Background()

	rc, err := s.Open(ctx, "pics/cat.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "JPEG", string(data))

	_, err = s.Open(ctx, "pics")
	assert.ErrorIs(t, err, store.ErrIsDir)

	_, err = s.Open(ctx, "../readme.txt")
	assert.ErrorIs(t, err, store.ErrInvalidName)
}

func TestPrefixScopesKeys(t *testing.T) {
	s := newTestStore(t, "/site/")
	ctx := context.Background()

	require.Equal(t, "site/", s.prefix)

	entries, err := s.ReadDir(ctx, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"pics", "readme.txt"}, sortedNames(entries))
}

func TestImport(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "docs", "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".gopher"), []byte("description: hi\n"), 0644))

	s, err := New(context.Background(), Config{InMemory: true})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	n, err := s.Import(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := s.ReadDir(context.Background(), ".")
	require.NoError(t, err)
	assert.Equal(t, []string{".gopher", "docs"}, sortedNames(entries))
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}
