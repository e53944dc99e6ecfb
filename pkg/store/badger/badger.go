// Package badger serves documents stored in a BadgerDB keyspace.
//
// Keys are cleaned store names (optionally under a key prefix) and values
// are file contents. Directories are not stored: a directory exists when at
// least one key lives below it, the same way object stores work.
//
//	docs/readme.txt        -> file "docs/readme.txt"
//	docs/pics/cat.jpg      -> directories "docs" and "docs/pics"
//
// Writes happen offline through Put and Import (the "gopherd import"
// command); the server only reads.
package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/marmos91/gopherd/pkg/store"
)

// Config holds the badger store options as decoded from configuration.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string `mapstructure:"path"`

	// Prefix scopes the store to keys below "prefix/".
	Prefix string `mapstructure:"prefix"`

	// InMemory opens a throwaway in-memory database.
	InMemory bool `mapstructure:"in_memory"`

	// ReadOnly opens the database without write access so several servers
	// can share one import.
	ReadOnly bool `mapstructure:"read_only"`
}

// BadgerStore implements store.Store over a BadgerDB database.
type BadgerStore struct {
	db     *badger.DB
	prefix string
}

var _ store.Store = (*BadgerStore)(nil)

// New opens (or creates) the database described by cfg.
//
// Parameters:
//   - ctx: Context for cancellation
//   - cfg: Store configuration
//
// Returns:
//   - *BadgerStore: Open store
//   - error: If the context is done or BadgerDB fails to open
func New(ctx context.Context, cfg Config) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger store: path is required")
		}
		opts = badger.DefaultOptions(cfg.Path).WithReadOnly(cfg.ReadOnly)
	}
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Path, err)
	}

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &BadgerStore{db: db, prefix: prefix}, nil
}

// key returns the database key of a cleaned name. The root maps to the
// bare prefix.
func (s *BadgerStore) key(name string) []byte {
	if name == "." {
		return []byte(s.prefix)
	}
	return []byte(s.prefix + name)
}

// dirPrefix returns the key prefix every child of the directory shares.
func (s *BadgerStore) dirPrefix(name string) []byte {
	if name == "." {
		return []byte(s.prefix)
	}
	return []byte(s.prefix + name + "/")
}

func (s *BadgerStore) Stat(ctx context.Context, name string) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}

	name, err := store.Clean(name)
	if err != nil {
		return store.Entry{}, err
	}

	var entry store.Entry
	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		entry, err = s.stat(txn, name)
		return err
	})
	return entry, err
}

func (s *BadgerStore) stat(txn *badger.Txn, name string) (store.Entry, error) {
	if name == "." {
		return store.Entry{Name: ".", Dir: true}, nil
	}

	item, err := txn.Get(s.key(name))
	switch {
	case err == nil:
		return store.Entry{Name: path.Base(name), Regular: true, Size: item.ValueSize()}, nil
	case !errors.Is(err, badger.ErrKeyNotFound):
		return store.Entry{}, &store.PathError{Op: "stat", Name: name, Err: err}
	}

	if hasPrefix(txn, s.dirPrefix(name)) {
		return store.Entry{Name: path.Base(name), Dir: true}, nil
	}

	return store.Entry{}, &store.PathError{Op: "stat", Name: name, Err: store.ErrNotExist}
}

func (s *BadgerStore) ReadDir(ctx context.Context, name string) ([]store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := store.Clean(name)
	if err != nil {
		return nil, err
	}

	var entries []store.Entry
	err = s.db.View(func(txn *badger.Txn) error {
		dir, err := s.stat(txn, name)
		if err != nil {
			return err
		}
		if !dir.Dir {
			return &store.PathError{Op: "readdir", Name: name, Err: store.ErrNotDir}
		}

		prefix := s.dirPrefix(name)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		seen := make(map[string]bool)
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			rest := string(item.Key()[len(prefix):])
			if rest == "" {
				continue
			}

			if i := strings.IndexByte(rest, '/'); i >= 0 {
				child := rest[:i]
				if !seen[child] {
					seen[child] = true
					entries = append(entries, store.Entry{Name: child, Dir: true})
				}
				continue
			}

			entries = append(entries, store.Entry{Name: rest, Regular: true, Size: item.ValueSize()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *BadgerStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := store.Clean(name)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = s.db.View(func(txn *badger.Txn) error {
		entry, err := s.stat(txn, name)
		if err != nil {
			return err
		}
		if entry.Dir {
			return &store.PathError{Op: "open", Name: name, Err: store.ErrIsDir}
		}

		item, err := txn.Get(s.key(name))
		if err != nil {
			return &store.PathError{Op: "open", Name: name, Err: err}
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Put stores data as the file at name, replacing any previous content.
func (s *BadgerStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := store.Clean(name)
	if err != nil {
		return err
	}
	if name == "." {
		return &store.PathError{Op: "put", Name: name, Err: store.ErrIsDir}
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(name), data)
	})
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func hasPrefix(txn *badger.Txn, prefix []byte) bool {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	it.Rewind()
	return it.Valid()
}
