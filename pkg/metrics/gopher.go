package metrics

import "time"

// Request outcomes recorded by the Gopher adapter.
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusInvalid  = "invalid"
	StatusTimeout  = "timeout"
	StatusEmpty    = "empty"
	StatusError    = "error"
)

// GopherMetrics provides observability for Gopher adapter operations.
//
// Labels are bounded: request status and response kind only. Selectors are
// never used as label values.
//
// Example usage:
//
//	// With metrics enabled
//	m := prometheus.NewGopherMetrics()
//	adapter := gopher.New(config, m)
//
//	// Without metrics (no-op)
//	adapter := gopher.New(config, nil)
type GopherMetrics interface {
	// RecordRequest records a finished request.
	//
	// Parameters:
	//   - status: One of the Status* constants
	//   - kind: Response kind ("text", "stream") or "" when nothing was sent
	//   - duration: Time from accept to close
	RecordRequest(status, kind string, duration time.Duration)

	// RecordBytesSent records response bytes written to a client.
	RecordBytesSent(bytes int64)

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int32)

	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionRejected counts connections dropped before serving.
	//
	// Parameters:
	//   - reason: "rate_limit"
	RecordConnectionRejected(reason string)

	// RecordConnectionForceClosed counts connections closed by shutdown timeout.
	RecordConnectionForceClosed()
}

// NewNoopGopherMetrics returns a GopherMetrics that records nothing.
func NewNoopGopherMetrics() GopherMetrics {
	return noopGopherMetrics{}
}

type noopGopherMetrics struct{}

func (noopGopherMetrics) RecordRequest(string, string, time.Duration) {}
func (noopGopherMetrics) RecordBytesSent(int64)                       {}
func (noopGopherMetrics) SetActiveConnections(int32)                  {}
func (noopGopherMetrics) RecordConnectionAccepted()                   {}
func (noopGopherMetrics) RecordConnectionClosed()                     {}
func (noopGopherMetrics) RecordConnectionRejected(string)             {}
func (noopGopherMetrics) RecordConnectionForceClosed()                {}
