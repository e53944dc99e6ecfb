package metrics

import "time"

// StoreMetrics observes mount store operations.
type StoreMetrics interface {
	// ObserveOperation records one store call.
	//
	// Parameters:
	//   - backend: Store type ("filesystem", "badger", "s3")
	//   - operation: "stat", "readdir" or "open"
	//   - duration: Time spent in the call
	//   - err: Error returned by the call, nil on success
	ObserveOperation(backend, operation string, duration time.Duration, err error)
}

// NewNoopStoreMetrics returns a StoreMetrics that records nothing.
func NewNoopStoreMetrics() StoreMetrics {
	return noopStoreMetrics{}
}

type noopStoreMetrics struct{}

func (noopStoreMetrics) ObserveOperation(string, string, time.Duration, error) {}
