// Package gopher serves a gopher.Application over TCP.
//
// Each accepted connection carries exactly one request: the client sends a
// selector line, the server writes the response and closes the connection.
// Closing is the only framing of the response body.
package gopher

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/gopherd/internal/logger"
	"github.com/marmos91/gopherd/internal/ratelimiter"
	"github.com/marmos91/gopherd/pkg/gopher"
	"github.com/marmos91/gopherd/pkg/metrics"
)

// GopherAdapter implements the adapter.Adapter interface for the Gopher
// protocol.
//
// Architecture:
// GopherAdapter owns the TCP listener and the connection lifecycle. Each
// accepted connection is handed to a GopherConnection running in its own
// goroutine. The route table is read-only while serving, so connections
// share the application without locking.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections)
//  3. shutdownCtx cancelled (handlers see ctx.Done())
//  4. Wait for active connections to complete (up to ShutdownTimeout)
//  5. Force-close any remaining connections after timeout
type GopherAdapter struct {
	config GopherConfig

	app *gopher.Application

	// listener is set once Serve binds; guarded by listenerMu because Port()
	// and Stop() may run concurrently with Serve().
	listener   net.Listener
	listenerMu sync.Mutex
	boundPort  atomic.Int32

	metrics metrics.GopherMetrics
	limiter *ratelimiter.RateLimiter

	// activeConns tracks all connection goroutines for graceful shutdown
	activeConns sync.WaitGroup

	shutdownOnce sync.Once
	shutdown     chan struct{}

	connCount atomic.Int32

	// connSemaphore limits concurrent connections; nil when unlimited
	connSemaphore chan struct{}

	// shutdownCtx is the parent of every request context and is cancelled
	// when shutdown begins
	shutdownCtx    context.Context
	cancelRequests context.CancelFunc

	// activeConnections maps connection IDs to net.Conn for forced closure
	activeConnections sync.Map
}

// RateLimitConfig bounds how fast new connections are served.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. 0 disables limiting.
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the bucket size. 0 means RequestsPerSecond.
	Burst uint `mapstructure:"burst" yaml:"burst"`
}

// GopherConfig holds configuration parameters for the Gopher listener.
//
// Default values (applied by New if zero):
//   - ReadTimeout: 30s
//   - WriteTimeout: 30s
//   - ShutdownTimeout: 30s
//   - MetricsLogInterval: 5m
type GopherConfig struct {
	// Enabled controls whether the Gopher adapter is started.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ListenAddress overrides the application's bindto:port. Useful when the
	// advertised port differs from the local one (port forwarding) and in
	// tests ("127.0.0.1:0").
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address"`

	// MaxConnections limits concurrent client connections. 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" yaml:"max_connections" validate:"min=0"`

	// ReadTimeout bounds the wait for the request line.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`

	// WriteTimeout bounds writing the whole response.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`

	// ShutdownTimeout is the maximum time to wait for active connections
	// during graceful shutdown before they are force-closed.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`

	// MetricsLogInterval is the period of the active connection log line.
	// 0 disables it.
	MetricsLogInterval time.Duration `mapstructure:"metrics_log_interval" yaml:"metrics_log_interval" validate:"min=0"`

	// WriteTerminator appends ".\r\n" after text responses. Off by default:
	// closing the connection ends the response.
	WriteTerminator bool `mapstructure:"write_terminator" yaml:"write_terminator"`

	// RateLimit bounds the accept rate.
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

func (c *GopherConfig) applyDefaults() {
	// Enabled defaults are handled in pkg/config so an explicit false from a
	// configuration file survives.
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.MetricsLogInterval == 0 {
		c.MetricsLogInterval = 5 * time.Minute
	}
}

func (c *GopherConfig) validate() error {
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid MaxConnections %d: must be >= 0", c.MaxConnections)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid ReadTimeout %v: must be >= 0", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid WriteTimeout %v: must be >= 0", c.WriteTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	if c.ListenAddress != "" {
		if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
			return fmt.Errorf("invalid ListenAddress %q: %w", c.ListenAddress, err)
		}
	}
	return nil
}

// New creates a GopherAdapter in a stopped state. Call SetApplication, then
// Serve.
//
// Zero values in config are replaced with defaults. Invalid configurations
// cause a panic (programmer error; pkg/config validates user input first).
//
// Parameters:
//   - config: Listener configuration (timeouts, limits)
//   - gopherMetrics: Optional metrics collector (nil for no metrics)
func New(config GopherConfig, gopherMetrics metrics.GopherMetrics) *GopherAdapter {
	config.applyDefaults()

	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid Gopher config: %v", err))
	}

	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
		logger.Debug("Gopher connection limit: %d", config.MaxConnections)
	} else {
		logger.Debug("Gopher connection limit: unlimited")
	}

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())

	if gopherMetrics == nil {
		gopherMetrics = metrics.NewNoopGopherMetrics()
	}

	return &GopherAdapter{
		config:         config,
		metrics:        gopherMetrics,
		limiter:        ratelimiter.New(config.RateLimit.RequestsPerSecond, config.RateLimit.Burst),
		shutdown:       make(chan struct{}),
		connSemaphore:  connSemaphore,
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancelRequests,
	}
}

// SetApplication injects the route table.
func (s *GopherAdapter) SetApplication(app *gopher.Application) {
	s.app = app
	logger.Debug("Gopher application configured: %d route(s)", app.Registry().Len())
}

func (s *GopherAdapter) listenAddress() string {
	if s.config.ListenAddress != "" {
		return s.config.ListenAddress
	}
	return s.app.Settings().ListenAddr()
}

// Serve binds the listener and accepts connections until ctx is cancelled.
//
// Every connection is served in its own goroutine with a context derived
// from shutdownCtx, so in-flight store reads see cancellation when shutdown
// begins.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the listener cannot be created or shutdown times out
func (s *GopherAdapter) Serve(ctx context.Context) error {
	if s.app == nil {
		return fmt.Errorf("gopher adapter: no application set")
	}

	addr := s.listenAddress()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create Gopher listener on %s: %w", addr, err)
	}

	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.boundPort.Store(int32(tcpAddr.Port))
	}

	settings := s.app.Settings()
	logger.Info("Gopher server listening on %s (advertising %s:%d)", listener.Addr(), settings.Host, settings.Port)
	logger.Debug("Gopher config: max_connections=%d read_timeout=%v write_timeout=%v rate_limit=%d/s burst=%d",
		s.config.MaxConnections, s.config.ReadTimeout, s.config.WriteTimeout,
		s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst)

	// Shutdown may have been requested before the listener existed.
	select {
	case <-s.shutdown:
		_ = listener.Close()
	default:
	}

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("Gopher shutdown signal received: %v", ctx.Err())
			s.initiateShutdown()
		case <-s.shutdown:
		}
	}()

	if s.config.MetricsLogInterval > 0 {
		go s.logMetrics(ctx)
	}

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return s.gracefulShutdown()
			}
		}

		tcpConn, err := listener.Accept()
		if err != nil {
			s.releaseSlot()

			select {
			case <-s.shutdown:
				return s.gracefulShutdown()
			default:
				logger.Debug("Error accepting Gopher connection: %v", err)
				continue
			}
		}

		if !s.limiter.Allow() {
			s.releaseSlot()
			s.metrics.RecordConnectionRejected("rate_limit")
			logger.Debug("Gopher connection from %s dropped: rate limit", tcpConn.RemoteAddr())
			_ = tcpConn.Close()
			continue
		}

		s.activeConns.Add(1)
		current := s.connCount.Add(1)

		id := uuid.NewString()
		s.activeConnections.Store(id, tcpConn)

		s.metrics.RecordConnectionAccepted()
		s.metrics.SetActiveConnections(current)

		logger.Debug("Gopher connection %s accepted from %s (active: %d)", id, tcpConn.RemoteAddr(), current)

		conn := NewGopherConnection(s, tcpConn, id)
		go func() {
			defer func() {
				s.activeConnections.Delete(id)

				s.activeConns.Done()
				remaining := s.connCount.Add(-1)
				s.releaseSlot()

				s.metrics.RecordConnectionClosed()
				s.metrics.SetActiveConnections(remaining)
			}()

			conn.Serve(s.shutdownCtx)
		}()
	}
}

func (s *GopherAdapter) releaseSlot() {
	if s.connSemaphore != nil {
		<-s.connSemaphore
	}
}

// initiateShutdown closes the listener and cancels request contexts. Safe to
// call multiple times.
func (s *GopherAdapter) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Debug("Gopher shutdown initiated")

		close(s.shutdown)

		s.listenerMu.Lock()
		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				logger.Debug("Error closing Gopher listener: %v", err)
			}
		}
		s.listenerMu.Unlock()

		s.cancelRequests()
	})
}

// gracefulShutdown waits up to ShutdownTimeout for active connections, then
// force-closes the rest.
//
// Returns an error when connections had to be force-closed.
func (s *GopherAdapter) gracefulShutdown() error {
	activeCount := s.connCount.Load()
	logger.Info("Gopher graceful shutdown: waiting for %d active connection(s) (timeout: %v)",
		activeCount, s.config.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Gopher graceful shutdown complete: all connections closed")
		return nil

	case <-time.After(s.config.ShutdownTimeout):
		remaining := s.connCount.Load()
		logger.Warn("Gopher shutdown timeout exceeded: %d connection(s) still active after %v - forcing closure",
			remaining, s.config.ShutdownTimeout)

		s.forceCloseConnections()

		return fmt.Errorf("gopher shutdown timeout: %d connections force-closed", remaining)
	}
}

func (s *GopherAdapter) forceCloseConnections() {
	closed := 0
	s.activeConnections.Range(func(key, value any) bool {
		id := key.(string)
		conn := value.(net.Conn)

		if err := conn.Close(); err != nil {
			logger.Debug("Error force-closing Gopher connection %s: %v", id, err)
		} else {
			closed++
			s.metrics.RecordConnectionForceClosed()
		}
		return true
	})

	if closed > 0 {
		logger.Info("Force-closed %d Gopher connection(s)", closed)
	}
}

// Stop initiates shutdown and waits for active connections until ctx is
// done. A nil ctx waits up to the configured ShutdownTimeout.
func (s *GopherAdapter) Stop(ctx context.Context) error {
	s.initiateShutdown()

	if ctx == nil {
		return s.gracefulShutdown()
	}

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		remaining := s.connCount.Load()
		logger.Warn("Gopher shutdown context cancelled: %d connection(s) still active: %v",
			remaining, ctx.Err())
		return ctx.Err()
	}
}

func (s *GopherAdapter) logMetrics(ctx context.Context) {
	ticker := time.NewTicker(s.config.MetricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			logger.Info("Gopher metrics: active_connections=%d", s.connCount.Load())
		}
	}
}

// GetActiveConnections returns the current number of active connections.
func (s *GopherAdapter) GetActiveConnections() int32 {
	return s.connCount.Load()
}

// Addr returns the bound listener address, or nil before Serve binds.
func (s *GopherAdapter) Addr() net.Addr {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound TCP port once listening, otherwise the configured
// one.
func (s *GopherAdapter) Port() int {
	if p := s.boundPort.Load(); p != 0 {
		return int(p)
	}
	if s.config.ListenAddress != "" {
		if _, port, err := net.SplitHostPort(s.config.ListenAddress); err == nil {
			if n, err := strconv.Atoi(port); err == nil {
				return n
			}
		}
	}
	if s.app != nil {
		return s.app.Settings().Port
	}
	return 0
}

// Protocol returns "Gopher".
func (s *GopherAdapter) Protocol() string {
	return "Gopher"
}
