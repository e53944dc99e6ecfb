package gopher

import "errors"

var (
	// ErrNotFound indicates that no route matched the selector, or that a
	// matched handler has nothing to serve for it. Clients receive the
	// literal text "not found".
	ErrNotFound = errors.New("not found")

	// ErrDirectoryNotFound indicates a mount whose root is not a directory.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrInvalidRequest indicates a request line that violates the protocol
	// (too long). The connection is closed without a response.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidPattern indicates a selector template that cannot be compiled.
	ErrInvalidPattern = errors.New("invalid selector pattern")
)
