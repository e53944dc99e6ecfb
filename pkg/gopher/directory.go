package gopher

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/marmos91/gopherd/pkg/menu"
	"github.com/marmos91/gopherd/pkg/store"
)

// TimestampLayout formats the informational line closing a generated
// directory menu.
const TimestampLayout = "2006-01-02 15:04:05 -0700"

// DirectoryHandler serves a directory of a store: directories as menus,
// files as streams.
type DirectoryHandler struct {
	store    store.Store
	root     string
	selector string
	index    *Index
	cfg      handlerConfig
	now      func() time.Time
}

// NewDirectoryHandler returns a handler for the directory root of st,
// advertised under selector. It fails with ErrDirectoryNotFound unless root
// exists and is a directory. A ".gopher" index in root is loaded here.
func NewDirectoryHandler(ctx context.Context, st store.Store, root, selector string, opts ...HandlerOption) (*DirectoryHandler, error) {
	return newDirectoryHandler(ctx, st, root, selector, newHandlerConfig(opts), time.Now)
}

func newDirectoryHandler(ctx context.Context, st store.Store, root, selector string, cfg handlerConfig, now func() time.Time) (*DirectoryHandler, error) {
	name, err := store.Clean(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", root, ErrDirectoryNotFound)
	}

	entry, err := st.Stat(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotExist):
		return nil, fmt.Errorf("%s: %w", root, ErrDirectoryNotFound)
	case err != nil:
		return nil, err
	case !entry.Dir:
		return nil, fmt.Errorf("%s: %w", root, ErrDirectoryNotFound)
	}

	index, err := loadIndex(ctx, st, name)
	if err != nil {
		return nil, err
	}

	return &DirectoryHandler{
		store:    st,
		root:     name,
		selector: selector,
		index:    index,
		cfg:      cfg,
		now:      now,
	}, nil
}

// Root returns the store name of the directory.
func (h *DirectoryHandler) Root() string { return h.root }

// Selector returns the selector the directory is advertised under.
func (h *DirectoryHandler) Selector() string { return h.selector }

// Respond resolves args below the directory. A subdirectory answers with its
// menu, a file with a stream over its content, anything else with
// ErrNotFound.
func (h *DirectoryHandler) Respond(ctx context.Context, args []string) (Response, error) {
	elems := make([]string, len(args))
	for i, a := range args {
		elems[i] = Sanitize(a)
	}

	name, err := store.Join(h.root, elems...)
	if err != nil {
		return Response{}, fmt.Errorf("%s: %w", strings.Join(elems, "/"), ErrNotFound)
	}

	entry, err := h.store.Stat(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			return Response{}, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return Response{}, err
	}

	if entry.Dir {
		sub, err := newDirectoryHandler(ctx, h.store, name, path.Join(append([]string{h.selector}, elems...)...), h.cfg, h.now)
		if err != nil {
			return Response{}, err
		}
		m, err := sub.Menu(ctx)
		if err != nil {
			return Response{}, err
		}
		return Text(m), nil
	}

	if !entry.Regular {
		return Response{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	rc, err := h.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) || errors.Is(err, store.ErrNotRegular) {
			return Response{}, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return Response{}, err
	}
	return Stream(rc), nil
}

// Menu renders the directory. With an index: its description, then one link
// per entry in file order. Without: the immediate children sorted by name,
// dotfiles and special files skipped, directories as submenus. Names that
// could not be sent back as a selector are left out. Both end with a
// timestamp line.
func (h *DirectoryHandler) Menu(ctx context.Context) ([]byte, error) {
	m := menu.NewBuilder(h.cfg.settings.Host, h.cfg.settings.Port, h.cfg.menuOptions()...)

	if h.index != nil {
		m.Paragraph(h.index.Description, menu.DefaultWidth)
		for _, e := range h.index.Entries {
			if !menu.ValidSelector(e.Selector) {
				continue
			}
			m.Link(e.Label, path.Join(h.selector, e.Selector))
		}
	} else {
		entries, err := h.store.ReadDir(ctx, h.root)
		if err != nil {
			return nil, err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

		for _, e := range entries {
			if strings.HasPrefix(e.Name, ".") || !menu.ValidSelector(e.Name) {
				continue
			}
			sel := path.Join(h.selector, e.Name)
			switch {
			case e.Dir:
				m.Submenu(e.Name, sel)
			case e.Regular:
				m.Link(e.Name, sel)
			}
		}
	}

	m.Text(h.now().Format(TimestampLayout))
	return m.Bytes(), nil
}
