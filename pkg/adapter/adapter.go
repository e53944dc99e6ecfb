// Package adapter defines the lifecycle contract between the server
// orchestrator and protocol front ends.
package adapter

import (
	"context"

	"github.com/marmos91/gopherd/pkg/gopher"
)

// Adapter is a network front end serving an Application's routes.
//
// The orchestrator calls SetApplication once, then Serve in its own
// goroutine. Stop may arrive at any time, concurrently with Serve, and more
// than once.
type Adapter interface {
	// Serve listens and blocks until ctx is cancelled, Stop is called or the
	// listener fails. A nil return means every connection drained before the
	// shutdown timeout; a return while ctx is still live is treated as fatal
	// by the orchestrator.
	Serve(ctx context.Context) error

	// SetApplication sets the route table. It must precede Serve.
	SetApplication(app *gopher.Application)

	// Stop closes the listener and waits for in-flight requests until ctx
	// expires, returning ctx.Err() in that case. Idempotent.
	Stop(ctx context.Context) error

	// Protocol names the adapter in logs.
	Protocol() string

	// Port is the bound TCP port once serving, the configured one before.
	Port() int
}
