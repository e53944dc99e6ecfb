package store

import "errors"

var (
	// ErrNotExist indicates that no node lives at the requested name.
	ErrNotExist = errors.New("no such file or directory")

	// ErrNotDir indicates that a directory operation hit a file.
	ErrNotDir = errors.New("not a directory")

	// ErrIsDir indicates that a file operation hit a directory.
	ErrIsDir = errors.New("is a directory")

	// ErrNotRegular indicates a node that is neither a directory nor a
	// regular file.
	ErrNotRegular = errors.New("not a regular file")

	// ErrInvalidName indicates a name that escapes the store root.
	ErrInvalidName = errors.New("invalid name")
)

// PathError records the store operation and name that failed.
type PathError struct {
	Op   string
	Name string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Name + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}
