package gopher

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/marmos91/gopherd/pkg/menu"
	"github.com/marmos91/gopherd/pkg/store"
)

// Settings is the addressing of a Gopher application. Host and Port are what
// menus advertise; BindTo is the local address the server listens on.
type Settings struct {
	Host   string
	Port   int
	BindTo string
}

// DefaultSettings returns localhost:70 bound to all interfaces.
func DefaultSettings() Settings {
	return Settings{Host: "localhost", Port: 70, BindTo: "0.0.0.0"}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Host == "" {
		s.Host = d.Host
	}
	if s.Port == 0 {
		s.Port = d.Port
	}
	if s.BindTo == "" {
		s.BindTo = d.BindTo
	}
	return s
}

// ListenAddr returns BindTo:Port.
func (s Settings) ListenAddr() string {
	return net.JoinHostPort(s.BindTo, strconv.Itoa(s.Port))
}

// Option configures an Application.
type Option func(*Application)

// WithHelpers makes helpers available to every builder the application's
// handlers create.
func WithHelpers(h menu.Helpers) Option {
	return func(a *Application) {
		for name, fn := range h {
			a.helpers[name] = fn
		}
	}
}

// WithRedirects registers the "URL:" redirect handler at construction.
func WithRedirects() Option {
	return func(a *Application) {
		a.redirects = true
	}
}

// Application is the composition root: settings, helpers and the route
// table. Routes are registered at startup; afterwards the application is
// only read and is safe for concurrent use.
type Application struct {
	settings  Settings
	helpers   menu.Helpers
	registry  *Registry
	redirects bool
}

// New returns an application. Zero fields of settings take their defaults.
func New(settings Settings, opts ...Option) *Application {
	a := &Application{
		settings: settings.withDefaults(),
		helpers:  make(menu.Helpers),
		registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.redirects {
		// Cannot fail: the template is a constant.
		_ = a.registry.Register(RedirectTemplate, NewRedirectHandler())
	}
	return a
}

// Settings returns the application's addressing.
func (a *Application) Settings() Settings { return a.settings }

// Registry returns the route table.
func (a *Application) Registry() *Registry { return a.registry }

func (a *Application) handlerOptions() []HandlerOption {
	return []HandlerOption{WithSettings(a.settings), WithMenuHelpers(a.helpers)}
}

// Mount serves the directory root of st under selector and everything below
// it. Fails with ErrDirectoryNotFound when root is not a directory.
func (a *Application) Mount(ctx context.Context, selector string, st store.Store, root string) error {
	h, err := NewDirectoryHandler(ctx, st, root, selector, a.handlerOptions()...)
	if err != nil {
		return fmt.Errorf("mount %s: %w", selector, err)
	}
	return a.registry.Register(strings.TrimRight(selector, "/")+"/*path", h)
}

// Map serves the menu written by script at selector.
func (a *Application) Map(selector string, script MapScript) error {
	return a.registry.Register(selector, NewMapHandler(script, a.handlerOptions()...))
}

// Text serves the document written by script at selector.
func (a *Application) Text(selector string, script TextScript) error {
	return a.registry.Register(selector, NewTextHandler(script, a.handlerOptions()...))
}

// Handle serves an arbitrary handler at selector.
func (a *Application) Handle(selector string, h Handler) error {
	return a.registry.Register(selector, h)
}

// EnableRedirects registers the "URL:" redirect handler after the routes
// registered so far. Calling it again has no effect.
func (a *Application) EnableRedirects() error {
	if a.redirects {
		return nil
	}
	a.redirects = true
	return a.registry.Register(RedirectTemplate, NewRedirectHandler())
}

// Lookup returns the handler and captures for selector.
func (a *Application) Lookup(selector string) (Handler, []string, error) {
	return a.registry.Lookup(selector)
}

// Request routes selector and runs the matched handler.
func (a *Application) Request(ctx context.Context, selector string) (Response, error) {
	h, args, err := a.Lookup(selector)
	if err != nil {
		return Response{}, err
	}
	return h.Respond(ctx, args)
}
