// Package store defines the read-only document trees a Gopher mount serves.
//
// A Store exposes a hierarchy of directories and files addressed by
// slash-separated names relative to the store root ("." is the root itself).
// Implementations live in subpackages:
//
//   - fs: a directory on the local filesystem, jailed with os.Root
//   - badger: documents kept in a BadgerDB keyspace, directories implied by
//     key prefixes
//   - s3: objects in an S3 bucket, directories implied by "/" delimited
//     common prefixes
//
// Stores must be safe for concurrent use; every connection goroutine walks
// them independently.
package store

import (
	"context"
	"io"
	"path"
	"strings"
	"time"
)

// Entry describes one node of a store.
type Entry struct {
	// Name is the last element of the node's name.
	Name string

	// Dir reports whether the node is a directory.
	Dir bool

	// Regular reports whether the node is a plain file that can be read to
	// the end. FIFOs, sockets and device nodes are neither Dir nor Regular.
	Regular bool

	// Size is the byte length of a file. Zero for directories.
	Size int64

	// ModTime is the last modification time when the backend knows it.
	ModTime time.Time
}

// Store is a read-only document tree.
type Store interface {
	// Stat describes the node at name.
	//
	// Returns ErrNotExist (wrapped) when nothing lives there.
	Stat(ctx context.Context, name string) (Entry, error)

	// ReadDir lists the immediate children of the directory at name, in no
	// particular order.
	//
	// Returns ErrNotExist or ErrNotDir (wrapped).
	ReadDir(ctx context.Context, name string) ([]Entry, error)

	// Open returns a reader over the file at name. The caller closes it.
	//
	// Returns ErrNotExist, ErrIsDir or ErrNotRegular (wrapped).
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Close releases the backend.
	Close() error
}

// Clean normalizes a store name: leading slashes are dropped, the result is
// path.Clean'ed and the root is ".". Names that would leave the store
// (".." or "../x") fail with ErrInvalidName.
func Clean(name string) (string, error) {
	name = path.Clean(strings.TrimLeft(name, "/"))
	if name == ".." || strings.HasPrefix(name, "../") {
		return "", &PathError{Op: "clean", Name: name, Err: ErrInvalidName}
	}
	return name, nil
}

// Join joins elem onto dir and cleans the result.
func Join(dir string, elem ...string) (string, error) {
	return Clean(path.Join(append([]string{dir}, elem...)...))
}
