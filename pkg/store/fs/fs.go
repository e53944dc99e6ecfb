// Package fs serves a local directory tree as a store.
//
// Every lookup goes through an os.Root handle opened on the mount
// directory, so ".." segments, absolute names and symlinks pointing outside
// the directory cannot reach files beyond it.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"

	"github.com/marmos91/gopherd/pkg/store"
)

// Config holds the filesystem store options as decoded from configuration.
type Config struct {
	// Path is the directory served as the store root. Must exist.
	Path string `mapstructure:"path" validate:"required"`
}

// FSStore implements store.Store on top of an os.Root.
type FSStore struct {
	root *os.Root
	path string
}

var _ store.Store = (*FSStore)(nil)

// New opens the directory at cfg.Path as a store.
//
// Parameters:
//   - ctx: Context for cancellation
//   - cfg: Store configuration
//
// Returns:
//   - *FSStore: Store jailed to cfg.Path
//   - error: If the context is done or the directory cannot be opened
func New(ctx context.Context, cfg Config) (*FSStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("filesystem store: path is required")
	}

	root, err := os.OpenRoot(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open filesystem store at %s: %w", cfg.Path, err)
	}

	return &FSStore{root: root, path: cfg.Path}, nil
}

// Path returns the directory this store serves.
func (s *FSStore) Path() string {
	return s.path
}

func (s *FSStore) Stat(ctx context.Context, name string) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}

	name, err := store.Clean(name)
	if err != nil {
		return store.Entry{}, err
	}

	info, err := s.root.Stat(name)
	if err != nil {
		return store.Entry{}, mapError("stat", name, err)
	}

	entry := entryFromInfo(info)
	entry.Name = path.Base(name)
	return entry, nil
}

func (s *FSStore) ReadDir(ctx context.Context, name string) ([]store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := store.Clean(name)
	if err != nil {
		return nil, err
	}

	dir, err := s.root.Open(name)
	if err != nil {
		return nil, mapError("readdir", name, err)
	}
	defer func() { _ = dir.Close() }()

	info, err := dir.Stat()
	if err != nil {
		return nil, mapError("readdir", name, err)
	}
	if !info.IsDir() {
		return nil, &store.PathError{Op: "readdir", Name: name, Err: store.ErrNotDir}
	}

	dirents, err := dir.ReadDir(-1)
	if err != nil {
		return nil, mapError("readdir", name, err)
	}

	entries := make([]store.Entry, 0, len(dirents))
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			// Removed between listing and stat.
			if errors.Is(err, iofs.ErrNotExist) {
				continue
			}
			return nil, mapError("readdir", path.Join(name, d.Name()), err)
		}
		entries = append(entries, entryFromInfo(info))
	}

	return entries, nil
}

func (s *FSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := store.Clean(name)
	if err != nil {
		return nil, err
	}

	// Opening a FIFO blocks until a writer shows up, so the type is checked
	// before the open and again on the opened file.
	info, err := s.root.Stat(name)
	if err != nil {
		return nil, mapError("open", name, err)
	}
	if err := checkRegular(name, info); err != nil {
		return nil, err
	}

	f, err := s.root.Open(name)
	if err != nil {
		return nil, mapError("open", name, err)
	}

	info, err = f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, mapError("open", name, err)
	}
	if err := checkRegular(name, info); err != nil {
		_ = f.Close()
		return nil, err
	}

	return f, nil
}

func checkRegular(name string, info iofs.FileInfo) error {
	switch {
	case info.IsDir():
		return &store.PathError{Op: "open", Name: name, Err: store.ErrIsDir}
	case !info.Mode().IsRegular():
		return &store.PathError{Op: "open", Name: name, Err: store.ErrNotRegular}
	}
	return nil
}

// Close releases the root handle.
func (s *FSStore) Close() error {
	return s.root.Close()
}

func entryFromInfo(info iofs.FileInfo) store.Entry {
	e := store.Entry{
		Name:    info.Name(),
		Dir:     info.IsDir(),
		Regular: info.Mode().IsRegular(),
		ModTime: info.ModTime(),
	}
	if e.Regular {
		e.Size = info.Size()
	}
	return e
}

// mapError translates io/fs errors into store errors, keeping the original
// in the chain.
func mapError(op, name string, err error) error {
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return &store.PathError{Op: op, Name: name, Err: fmt.Errorf("%w: %w", store.ErrNotExist, err)}
	default:
		return &store.PathError{Op: op, Name: name, Err: err}
	}
}
