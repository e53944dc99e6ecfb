// Package server runs the gopher front ends for one application.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/gopherd/internal/logger"
	"github.com/marmos91/gopherd/pkg/adapter"
	"github.com/marmos91/gopherd/pkg/gopher"
	"github.com/marmos91/gopherd/pkg/metrics"
)

// DefaultStopTimeout bounds the Stop() calls issued during shutdown.
const DefaultStopTimeout = 30 * time.Second

// ErrAlreadyServed is returned by Serve when called a second time.
var ErrAlreadyServed = errors.New("server: Serve already called")

// Server owns the listening adapters and the optional metrics endpoint of a
// gopherd process. Every adapter serves the same Application.
//
// Lifecycle:
//  1. New() with the application
//  2. AddAdapter() for each listener
//  3. Serve() starts everything and blocks
//  4. Cancelling the context stops adapters in reverse registration order
type Server struct {
	app *gopher.Application

	metricsServer *metrics.Server
	stopTimeout   time.Duration

	mu       sync.Mutex
	adapters []adapter.Adapter
	served   bool
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsServer serves ms alongside the adapters.
func WithMetricsServer(ms *metrics.Server) Option {
	return func(s *Server) { s.metricsServer = ms }
}

// WithStopTimeout overrides DefaultStopTimeout.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}

// New returns a stopped server. Panics if app is nil.
func New(app *gopher.Application, opts ...Option) *Server {
	if app == nil {
		panic("application cannot be nil")
	}

	s := &Server{
		app:         app,
		stopTimeout: DefaultStopTimeout,
		adapters:    make([]adapter.Adapter, 0, 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddAdapter injects the application into a and registers it. Two adapters
// may not share a port.
func (s *Server) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		return fmt.Errorf("cannot add %s adapter: server already started", a.Protocol())
	}

	a.SetApplication(s.app)

	port := a.Port()
	for _, existing := range s.adapters {
		if port != 0 && existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter", port, existing.Protocol())
		}
	}

	s.adapters = append(s.adapters, a)
	logger.Info("Registered %s adapter on port %d", a.Protocol(), port)
	return nil
}

// Adapters returns a copy of the registered adapters.
func (s *Server) Adapters() []adapter.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]adapter.Adapter, len(s.adapters))
	copy(out, s.adapters)
	return out
}

type adapterError struct {
	protocol string
	err      error
}

// Serve starts every adapter and the metrics server, then blocks until ctx
// is cancelled or one of them fails.
//
// Returns:
//   - ctx.Err() after a requested shutdown
//   - the first adapter or metrics server failure otherwise
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		return ErrAlreadyServed
	}
	s.served = true
	if len(s.adapters) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.Unlock()

	logger.Info("Starting gopherd with %d adapter(s) and %d route(s)", len(adapters), s.app.Registry().Len())

	// Adapters run on their own context so a failing one can stop the rest.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan adapterError, len(adapters)+1)
	var wg sync.WaitGroup

	for _, a := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			protocol := a.Protocol()
			logger.Info("Starting %s adapter on port %d", protocol, a.Port())

			if err := a.Serve(runCtx); err != nil {
				if runCtx.Err() == nil {
					logger.Error("%s adapter failed: %v", protocol, err)
					errChan <- adapterError{protocol: protocol, err: err}
					return
				}
				logger.Warn("%s adapter stopped: %v", protocol, err)
				return
			}
			logger.Info("%s adapter stopped", protocol)
		}(a)
	}

	if s.metricsServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.metricsServer.Start(runCtx); err != nil && runCtx.Err() == nil {
				errChan <- adapterError{protocol: "metrics", err: err}
			}
		}()
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		shutdownErr = ctx.Err()
	case ae := <-errChan:
		logger.Error("%s failed: %v - stopping all adapters", ae.protocol, ae.err)
		shutdownErr = fmt.Errorf("%s adapter error: %w", ae.protocol, ae.err)
	}

	cancel()
	s.stopAll(adapters)

	wg.Wait()
	logger.Info("gopherd stopped")

	return shutdownErr
}

// stopAll signals every adapter in reverse registration order.
func (s *Server) stopAll(adapters []adapter.Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()

	for i := len(adapters) - 1; i >= 0; i-- {
		a := adapters[i]
		if err := a.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s adapter: %v", a.Protocol(), err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Stop(ctx); err != nil {
			logger.Debug("Metrics server stop: %v", err)
		}
	}
}
