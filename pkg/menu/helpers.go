package menu

// LineWriter is the part of Builder and TextBuilder that helpers may use.
type LineWriter interface {
	Text(title string)
	Paragraph(text string, width int)
}

// Helper is an extension function injected into builders at construction.
// It receives the builder it was called on and the caller's arguments.
type Helper func(w LineWriter, args ...string) error

// Helpers maps helper names to their implementation.
type Helpers map[string]Helper

// Option configures a Builder or TextBuilder.
type Option func(*options)

type options struct {
	helpers Helpers
}

// WithHelpers makes the given helpers callable through Call. Later options
// override helpers registered under the same name.
func WithHelpers(h Helpers) Option {
	return func(o *options) {
		if o.helpers == nil {
			o.helpers = make(Helpers, len(h))
		}
		for name, fn := range h {
			o.helpers[name] = fn
		}
	}
}

// WithHelper registers a single helper.
func WithHelper(name string, fn Helper) Option {
	return WithHelpers(Helpers{name: fn})
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
