package gopher

import "fmt"

type route struct {
	pattern *Pattern
	handler Handler
}

// Registry is the ordered route table. It is built at startup and only read
// while serving, so it carries no lock.
type Registry struct {
	routes []route
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register compiles template and appends it with its handler. Registering
// the same template twice is allowed; the later entry is unreachable.
func (r *Registry) Register(template string, h Handler) error {
	if h == nil {
		return fmt.Errorf("register %q: nil handler", template)
	}

	p, err := CompilePattern(template)
	if err != nil {
		return err
	}

	r.routes = append(r.routes, route{pattern: p, handler: h})
	return nil
}

// Lookup sanitizes selector and returns the first registered handler whose
// pattern matches, along with the captured arguments. ErrNotFound when
// nothing matches.
func (r *Registry) Lookup(selector string) (Handler, []string, error) {
	selector = Sanitize(selector)
	for _, rt := range r.routes {
		if args, ok := rt.pattern.Match(selector); ok {
			return rt.handler, args, nil
		}
	}
	return nil, nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	return len(r.routes)
}

// Routes returns the registered templates in lookup order.
func (r *Registry) Routes() []string {
	out := make([]string, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.pattern.Template()
	}
	return out
}
