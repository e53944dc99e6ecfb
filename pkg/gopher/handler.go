package gopher

import (
	"context"

	"github.com/marmos91/gopherd/pkg/menu"
)

// Handler produces the response for a matched selector. args holds the
// pattern captures in template order.
type Handler interface {
	Respond(ctx context.Context, args []string) (Response, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, args []string) (Response, error)

func (f HandlerFunc) Respond(ctx context.Context, args []string) (Response, error) {
	return f(ctx, args)
}

// TextScript writes a plain text document.
type TextScript func(t *menu.TextBuilder, args []string) error

// MapScript writes a menu.
type MapScript func(m *menu.Builder, args []string) error

// HandlerOption configures the handlers built by this package.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	settings Settings
	helpers  menu.Helpers
}

// WithSettings gives a handler the host and port written into menu lines.
func WithSettings(s Settings) HandlerOption {
	return func(c *handlerConfig) {
		c.settings = s.withDefaults()
	}
}

// WithMenuHelpers makes helpers callable from the builders a handler
// creates.
func WithMenuHelpers(h menu.Helpers) HandlerOption {
	return func(c *handlerConfig) {
		c.helpers = h
	}
}

func newHandlerConfig(opts []HandlerOption) handlerConfig {
	c := handlerConfig{settings: DefaultSettings()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c handlerConfig) menuOptions() []menu.Option {
	if len(c.helpers) == 0 {
		return nil
	}
	return []menu.Option{menu.WithHelpers(c.helpers)}
}

// TextHandler runs a TextScript against a fresh TextBuilder per request.
type TextHandler struct {
	script TextScript
	cfg    handlerConfig
}

func NewTextHandler(script TextScript, opts ...HandlerOption) *TextHandler {
	return &TextHandler{script: script, cfg: newHandlerConfig(opts)}
}

func (h *TextHandler) Respond(ctx context.Context, args []string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	t := menu.NewTextBuilder(h.cfg.menuOptions()...)
	if err := h.script(t, args); err != nil {
		return Response{}, err
	}
	return Text(t.Bytes()), nil
}

// MapHandler runs a MapScript against a fresh menu Builder per request.
type MapHandler struct {
	script MapScript
	cfg    handlerConfig
}

func NewMapHandler(script MapScript, opts ...HandlerOption) *MapHandler {
	return &MapHandler{script: script, cfg: newHandlerConfig(opts)}
}

func (h *MapHandler) Respond(ctx context.Context, args []string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	m := menu.NewBuilder(h.cfg.settings.Host, h.cfg.settings.Port, h.cfg.menuOptions()...)
	if err := h.script(m, args); err != nil {
		return Response{}, err
	}
	return Text(m.Bytes()), nil
}
