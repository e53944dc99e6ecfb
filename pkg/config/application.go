package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/marmos91/gopherd/internal/logger"
	"github.com/marmos91/gopherd/pkg/gopher"
	"github.com/marmos91/gopherd/pkg/menu"
	"github.com/marmos91/gopherd/pkg/metrics"
	"github.com/marmos91/gopherd/pkg/store"
)

// RulerWidth is the default width of ruler helpers.
const RulerWidth = 80

// Ruler returns a helper that writes pattern repeated to width characters.
// An optional first argument overrides the width.
func Ruler(pattern string) menu.Helper {
	return func(w menu.LineWriter, args ...string) error {
		width := RulerWidth
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("ruler: invalid width %q", args[0])
			}
			width = n
		}
		unit := []rune(pattern)
		if len(unit) == 0 {
			return nil
		}
		line := []rune(strings.Repeat(pattern, width/len(unit)+1))
		w.Text(string(line[:width]))
		return nil
	}
}

// Application is a gopher.Application built from configuration together
// with the stores its mounts opened.
type Application struct {
	*gopher.Application
	stores []store.Store
}

// Close closes every store opened for the mounts.
func (a *Application) Close() error {
	var errs []error
	for _, st := range a.stores {
		if err := st.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildApplication creates the route table described by cfg.
//
// Registration order decides precedence: routes first, then mounts, then
// the redirect handler when enabled. On error every store opened so far is
// closed.
func BuildApplication(ctx context.Context, cfg *Config, storeMetrics metrics.StoreMetrics) (*Application, error) {
	helpers := make(menu.Helpers, len(cfg.Helpers))
	for name, pattern := range cfg.Helpers {
		helpers[name] = Ruler(pattern)
	}

	app := &Application{
		Application: gopher.New(gopher.Settings{
			Host:   cfg.Gopher.Host,
			Port:   cfg.Gopher.Port,
			BindTo: cfg.Gopher.BindTo,
		}, gopher.WithHelpers(helpers)),
	}

	if err := app.build(ctx, cfg, storeMetrics); err != nil {
		_ = app.Close()
		return nil, err
	}

	logger.Info("Application ready: %d route(s), %d mount(s), redirects=%t",
		len(cfg.Routes), len(cfg.Mounts), cfg.Gopher.Redirects)
	return app, nil
}

func (a *Application) build(ctx context.Context, cfg *Config, storeMetrics metrics.StoreMetrics) error {
	for i, route := range cfg.Routes {
		if err := a.addRoute(route); err != nil {
			return fmt.Errorf("routes[%d] %s: %w", i, route.Selector, err)
		}
		logger.Debug("Registered %s route %s", route.Type, route.Selector)
	}

	for i, mount := range cfg.Mounts {
		st, err := CreateStore(ctx, mount, storeMetrics)
		if err != nil {
			return fmt.Errorf("mounts[%d] %s: %w", i, mount.Selector, err)
		}
		a.stores = append(a.stores, st)

		if err := a.Mount(ctx, mount.Selector, st, mount.Root); err != nil {
			return fmt.Errorf("mounts[%d]: %w", i, err)
		}
		logger.Info("Mounted %s store at %s (root %s)", mount.Store, mount.Selector, mount.Root)
	}

	if cfg.Gopher.Redirects {
		if err := a.EnableRedirects(); err != nil {
			return err
		}
	}
	return nil
}

func (a *Application) addRoute(route RouteConfig) error {
	switch route.Type {
	case "text":
		for _, item := range route.Items {
			switch item.Type {
			case "text", "paragraph", "helper":
			default:
				return fmt.Errorf("item type %q is not allowed in a text route", item.Type)
			}
		}
		return a.Text(route.Selector, func(tb *menu.TextBuilder, _ []string) error {
			if route.Description != "" {
				tb.Paragraph(route.Description, menu.DefaultWidth)
			}
			for _, line := range route.Lines {
				tb.Line(line)
			}
			return renderItems(tb, route.Items, nil)
		})

	case "map":
		if len(route.Lines) > 0 {
			return fmt.Errorf("lines are only allowed in text routes")
		}
		return a.Map(route.Selector, func(mb *menu.Builder, _ []string) error {
			if route.Description != "" {
				mb.Paragraph(route.Description, menu.DefaultWidth)
			}
			return renderItems(mb, route.Items, mb)
		})

	default:
		return fmt.Errorf("unknown route type %q", route.Type)
	}
}

type caller interface {
	menu.LineWriter
	Call(name string, args ...string) error
}

// renderItems writes items to w; link-like items need a menu builder.
func renderItems(w caller, items []ItemConfig, mb *menu.Builder) error {
	for _, item := range items {
		switch item.Type {
		case "text":
			w.Text(item.Title)
		case "paragraph":
			w.Paragraph(item.Title, menu.DefaultWidth)
		case "helper":
			if err := w.Call(item.Helper, item.Args...); err != nil {
				return err
			}
		case "link":
			mb.Link(item.Title, item.Selector)
		case "submenu":
			mb.Submenu(item.Title, item.Selector)
		case "url":
			mb.URL(item.Title, item.URL)
		default:
			return fmt.Errorf("unknown item type %q", item.Type)
		}
	}
	return nil
}
