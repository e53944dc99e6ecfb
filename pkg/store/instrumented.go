package store

import (
	"context"
	"io"
	"time"

	"github.com/marmos91/gopherd/pkg/metrics"
)

// instrumented records the duration and outcome of every call to the
// wrapped store.
type instrumented struct {
	Store
	backend string
	metrics metrics.StoreMetrics
}

// Instrument wraps s so every Stat, ReadDir and Open is observed under the
// given backend label. A nil m returns s unchanged.
func Instrument(s Store, backend string, m metrics.StoreMetrics) Store {
	if m == nil {
		return s
	}
	return &instrumented{Store: s, backend: backend, metrics: m}
}

func (s *instrumented) Stat(ctx context.Context, name string) (e Entry, err error) {
	defer s.observe("stat", time.Now(), &err)
	return s.Store.Stat(ctx, name)
}

func (s *instrumented) ReadDir(ctx context.Context, name string) (entries []Entry, err error) {
	defer s.observe("readdir", time.Now(), &err)
	return s.Store.ReadDir(ctx, name)
}

func (s *instrumented) Open(ctx context.Context, name string) (rc io.ReadCloser, err error) {
	defer s.observe("open", time.Now(), &err)
	return s.Store.Open(ctx, name)
}

func (s *instrumented) observe(op string, start time.Time, err *error) {
	s.metrics.ObserveOperation(s.backend, op, time.Since(start), *err)
}
