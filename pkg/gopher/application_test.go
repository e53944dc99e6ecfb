package gopher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/gopherd/pkg/menu"
	storefs "github.com/marmos91/gopherd/pkg/store/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	app := New(Settings{})
	assert.Equal(t, DefaultSettings(), app.Settings())
	assert.Equal(t, "0.0.0.0:70", app.Settings().ListenAddr())

	app = New(Settings{Host: "gopher.example", Port: 7070})
	assert.Equal(t, Settings{Host: "gopher.example", Port: 7070, BindTo: "0.0.0.0"}, app.Settings())
}

func TestApplicationRoutes(t *testing.T) {
	app := New(Settings{Host: "h", Port: 1})

	require.NoError(t, app.Text("/about", func(tb *menu.TextBuilder, _ []string) error {
		tb.Line("about us")
		return nil
	}))
	require.NoError(t, app.Map("/hello/:who", func(m *menu.Builder, args []string) error {
		m.Text("hi " + args[0])
		return nil
	}))

	resp, err := app.Request(context.Background(), "/about\r\n")
	require.NoError(t, err)
	assert.Equal(t, "about us\r\n", string(resp.Bytes()))

	resp, err = app.Request(context.Background(), "hello/world")
	require.NoError(t, err)
	assert.Equal(t, "ihi world\t(NULL)\t(NULL)\t0\r\n", string(resp.Bytes()))

	_, err = app.Request(context.Background(), "/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplicationMount(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("exact bytes\x00\xff"), 0644))

	st, err := storefs.New(context.Background(), storefs.Config{Path: dir})
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	app := New(Settings{Host: "gopher.test", Port: 70})
	require.NoError(t, app.Mount(context.Background(), "/documents", st, "."))

	resp, err := app.Request(context.Background(), "/documents/readme.txt")
	require.NoError(t, err)
	var sb strings.Builder
	_, err = resp.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, "exact bytes\x00\xff", sb.String())

	resp, err = app.Request(context.Background(), "/documents")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(resp.Bytes()), "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0readme.txt\t/documents/readme.txt\tgopher.test\t70", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "i"))
	assert.True(t, strings.HasSuffix(lines[1], "\t(NULL)\t(NULL)\t0"))

	_, err = app.Request(context.Background(), "/documents/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplicationMountMissingDirectory(t *testing.T) {
	st, err := storefs.New(context.Background(), storefs.Config{Path: t.TempDir()})
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	app := New(Settings{})
	err = app.Mount(context.Background(), "/x", st, "does-not-exist")
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
}

func TestApplicationHelpers(t *testing.T) {
	app := New(Settings{}, WithHelpers(menu.Helpers{
		"ruler": func(w menu.LineWriter, _ ...string) error {
			w.Text("--")
			return nil
		},
	}))
	require.NoError(t, app.Text("/r", func(tb *menu.TextBuilder, _ []string) error {
		return tb.Call("ruler")
	}))

	resp, err := app.Request(context.Background(), "/r")
	require.NoError(t, err)
	assert.Equal(t, "--\r\n", string(resp.Bytes()))
}

func TestApplicationRedirects(t *testing.T) {
	app := New(Settings{})
	_, err := app.Request(context.Background(), "URL:https://example.com/")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, app.EnableRedirects())
	require.NoError(t, app.EnableRedirects())
	assert.Equal(t, 1, app.Registry().Len())

	resp, err := app.Request(context.Background(), "/URL:https://example.com/")
	require.NoError(t, err)
	assert.Contains(t, string(resp.Bytes()), "https://example.com/")

	withOption := New(Settings{}, WithRedirects())
	assert.Equal(t, []string{RedirectTemplate}, withOption.Registry().Routes())
}

func TestApplicationHandle(t *testing.T) {
	app := New(Settings{})
	require.NoError(t, app.Handle("/raw/*rest", HandlerFunc(func(_ context.Context, args []string) (Response, error) {
		return TextString("raw:" + args[0]), nil
	})))

	h, args, err := app.Lookup("/raw/a/b")
	require.NoError(t, err)
	resp, err := h.Respond(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, "raw:a/b", string(resp.Bytes()))
}
