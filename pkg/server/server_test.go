package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/gopherd/pkg/gopher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	name    string
	port    int
	failErr error

	mu      sync.Mutex
	app     *gopher.Application
	stopped *[]string
}

func (f *fakeAdapter) Serve(ctx context.Context) error {
	if f.failErr != nil {
		return f.failErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeAdapter) SetApplication(app *gopher.Application) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.app = app
}

func (f *fakeAdapter) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped != nil {
		*f.stopped = append(*f.stopped, f.name)
	}
	return nil
}

func (f *fakeAdapter) Protocol() string { return f.name }
func (f *fakeAdapter) Port() int        { return f.port }

func TestAddAdapterInjectsApplication(t *testing.T) {
	app := gopher.New(gopher.DefaultSettings())
	s := New(app)

	a := &fakeAdapter{name: "a", port: 70}
	require.NoError(t, s.AddAdapter(a))
	assert.Same(t, app, a.app)
	assert.Len(t, s.Adapters(), 1)
}

func TestAddAdapterRejectsPortConflict(t *testing.T) {
	s := New(gopher.New(gopher.DefaultSettings()))

	require.NoError(t, s.AddAdapter(&fakeAdapter{name: "a", port: 70}))
	err := s.AddAdapter(&fakeAdapter{name: "b", port: 70})
	assert.ErrorContains(t, err, "port 70")
}

func TestServeWithoutAdapters(t *testing.T) {
	s := New(gopher.New(gopher.DefaultSettings()))
	assert.Error(t, s.Serve(context.Background()))
}

func TestServeStopsInReverseOrder(t *testing.T) {
	var stopped []string
	s := New(gopher.New(gopher.DefaultSettings()), WithStopTimeout(time.Second))
	require.NoError(t, s.AddAdapter(&fakeAdapter{name: "first", port: 70, stopped: &stopped}))
	require.NoError(t, s.AddAdapter(&fakeAdapter{name: "second", port: 7070, stopped: &stopped}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}

	assert.Equal(t, []string{"second", "first"}, stopped)
	assert.ErrorIs(t, s.Serve(context.Background()), ErrAlreadyServed)
	assert.Error(t, s.AddAdapter(&fakeAdapter{name: "late", port: 1}))
}

func TestServeStopsOthersWhenOneFails(t *testing.T) {
	var stopped []string
	boom := errors.New("bind failed")

	s := New(gopher.New(gopher.DefaultSettings()))
	require.NoError(t, s.AddAdapter(&fakeAdapter{name: "healthy", port: 70, stopped: &stopped}))
	require.NoError(t, s.AddAdapter(&fakeAdapter{name: "broken", port: 71, failErr: boom, stopped: &stopped}))

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.Contains(t, stopped, "healthy")
}
