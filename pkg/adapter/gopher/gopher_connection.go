package gopher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/marmos91/gopherd/internal/logger"
	"github.com/marmos91/gopherd/pkg/gopher"
	"github.com/marmos91/gopherd/pkg/metrics"
)

// MaxRequestLength is the longest request line accepted, terminator
// included.
const MaxRequestLength = 255

// notFoundBody is sent when no route matches.
var notFoundBody = []byte("not found")

// terminator optionally ends text responses.
var terminator = []byte(".\r\n")

// GopherConnection serves the single request of one TCP connection.
//
// States: awaiting request -> dispatching -> responding -> closed. Any
// failure before a response is written closes the connection silently; the
// only error a client ever sees is "not found".
type GopherConnection struct {
	server *GopherAdapter
	conn   net.Conn
	id     string
}

func NewGopherConnection(server *GopherAdapter, conn net.Conn, id string) *GopherConnection {
	return &GopherConnection{
		server: server,
		conn:   conn,
		id:     id,
	}
}

// Serve reads the request line, dispatches it and writes the response. The
// connection is always closed on return, and a panic in a handler is
// recovered so it cannot take the listener down.
func (c *GopherConnection) Serve(ctx context.Context) {
	start := time.Now()
	status, kind := metrics.StatusError, ""
	clientAddr := c.conn.RemoteAddr().String()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic serving Gopher connection %s from %s: %v", c.id, clientAddr, r)
			status, kind = metrics.StatusError, ""
		}
		_ = c.conn.Close()

		duration := time.Since(start)
		c.server.metrics.RecordRequest(status, kind, duration)
		logger.Debug("Gopher connection %s from %s closed: status=%s duration=%v", c.id, clientAddr, status, duration)
	}()

	if c.server.config.ReadTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.server.config.ReadTimeout)); err != nil {
			logger.Warn("Failed to set read deadline for %s: %v", clientAddr, err)
		}
	}

	selector, err := ReadRequest(c.conn)
	if err != nil {
		status = c.classifyReadError(err, clientAddr)
		return
	}

	logger.Debug("Gopher request %s from %s: %q", c.id, clientAddr, selector)

	resp, err := c.server.app.Request(ctx, selector)
	if err != nil {
		if errors.Is(err, gopher.ErrNotFound) {
			status = metrics.StatusNotFound
			c.setWriteDeadline(clientAddr)
			if _, werr := c.conn.Write(notFoundBody); werr != nil {
				logger.Debug("Failed to write not found to %s: %v", clientAddr, werr)
			}
			return
		}

		logger.Error("Gopher request %s from %s failed: %v", c.id, clientAddr, err)
		return
	}

	kind = resp.Kind()
	w := &deadlineWriter{conn: c.conn, timeout: c.server.config.WriteTimeout}

	n, err := resp.WriteTo(w)
	if err == nil && c.server.config.WriteTerminator && !resp.IsStream() {
		var m int
		m, err = w.Write(terminator)
		n += int64(m)
	}
	c.server.metrics.RecordBytesSent(n)

	if err != nil {
		logger.Debug("Gopher response %s to %s interrupted after %d bytes: %v", c.id, clientAddr, n, err)
		return
	}

	status = metrics.StatusOK
}

func (c *GopherConnection) setWriteDeadline(clientAddr string) {
	if c.server.config.WriteTimeout <= 0 {
		return
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout)); err != nil {
		logger.Warn("Failed to set write deadline for %s: %v", clientAddr, err)
	}
}

// deadlineWriter pushes the write deadline forward before every write, so
// write_timeout bounds a stalled client rather than a long transfer.
type deadlineWriter struct {
	conn    net.Conn
	timeout time.Duration
}

func (w *deadlineWriter) Write(p []byte) (int, error) {
	if w.timeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
			return 0, err
		}
	}
	return w.conn.Write(p)
}

func (c *GopherConnection) classifyReadError(err error, clientAddr string) string {
	var netErr net.Error
	switch {
	case errors.Is(err, gopher.ErrInvalidRequest):
		logger.Warn("Gopher connection %s from %s: %v", c.id, clientAddr, err)
		return metrics.StatusInvalid
	case errors.Is(err, io.EOF):
		logger.Debug("Gopher connection %s from %s closed without a request", c.id, clientAddr)
		return metrics.StatusEmpty
	case errors.As(err, &netErr) && netErr.Timeout():
		logger.Debug("Gopher connection %s from %s timed out waiting for a request", c.id, clientAddr)
		return metrics.StatusTimeout
	default:
		logger.Debug("Error reading Gopher request from %s: %v", clientAddr, err)
		return metrics.StatusError
	}
}

// ReadRequest reads one request line from r and returns it without its line
// terminator.
//
// The line, terminator included, may not exceed MaxRequestLength bytes;
// longer input fails with gopher.ErrInvalidRequest as soon as the limit is
// passed. When r ends before a newline, whatever was read is the request;
// if nothing was read the error is io.EOF.
func ReadRequest(r io.Reader) (string, error) {
	var buf [MaxRequestLength + 1]byte
	n := 0

	for {
		m, err := r.Read(buf[n:])
		if i := bytes.IndexByte(buf[n:n+m], '\n'); i >= 0 {
			end := n + i + 1
			if end > MaxRequestLength {
				return "", gopher.ErrInvalidRequest
			}
			return trimEOL(buf[:end]), nil
		}
		n += m

		if n > MaxRequestLength {
			return "", gopher.ErrInvalidRequest
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if n == 0 {
					return "", io.EOF
				}
				return trimEOL(buf[:n]), nil
			}
			return "", err
		}
	}
}

func trimEOL(b []byte) string {
	return strings.TrimRight(string(b), "\r\n")
}
