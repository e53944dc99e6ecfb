// Package menu assembles Gopher menus and plain text documents.
//
// A menu is a sequence of CRLF terminated lines of the form
//
//	<type><title>\t<selector>\t<host>\t<port>
//
// Builder writes those lines using the server's host and port, infers item
// types from selector extensions and wraps long text into informational
// lines. TextBuilder is the plain text counterpart used by text routes.
package menu

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/go-wordwrap"
)

// DefaultWidth is the column width Paragraph wraps to when given width <= 0.
const DefaultWidth = 70

// Informational lines point nowhere.
const (
	nullSelector = "(NULL)"
	nullHost     = "(NULL)"
)

var titleReplacer = strings.NewReplacer("\t", " ", "\r", "", "\n", " ")

// fieldReplacer strips the column and line separators from selector, host
// and port columns.
var fieldReplacer = strings.NewReplacer("\t", "", "\r", "", "\n", "")

// Builder accumulates menu lines. The zero value is not usable; use NewBuilder.
type Builder struct {
	host    string
	port    int
	buf     bytes.Buffer
	helpers Helpers
}

// NewBuilder returns a builder whose links point at host:port.
func NewBuilder(host string, port int, opts ...Option) *Builder {
	o := buildOptions(opts)
	return &Builder{host: host, port: port, helpers: o.helpers}
}

// Host returns the host written into navigable lines.
func (b *Builder) Host() string { return b.host }

// Port returns the port written into navigable lines.
func (b *Builder) Port() int { return b.port }

// Line writes one menu line. The selector is normalized to start with
// exactly one "/".
func (b *Builder) Line(t ItemType, title, selector, host string, port int) {
	b.writeLine(t, title, NormalizeSelector(selector), host, strconv.Itoa(port))
}

// LineRaw writes a menu line with every column taken verbatim.
func (b *Builder) LineRaw(t ItemType, title, selector, host, port string) {
	b.writeLine(t, title, selector, host, port)
}

// Link writes a line whose type is inferred from the selector's extension.
func (b *Builder) Link(title, selector string) {
	b.Line(TypeForSelector(selector), title, selector, b.host, b.port)
}

// Submenu writes a type 1 line.
func (b *Builder) Submenu(title, selector string) {
	b.Line(TypeSubmenu, title, selector, b.host, b.port)
}

// URL writes a type h line pointing at an external resource through the
// "URL:" selector convention.
func (b *Builder) URL(title, url string) {
	b.Line(TypeHTML, title, "URL:"+url, b.host, b.port)
}

// Text writes an informational line. Its selector is always "(NULL)" and its
// port always 0, whatever the configured host and port are.
func (b *Builder) Text(title string) {
	b.LineRaw(TypeInfo, title, nullSelector, nullHost, "0")
}

// Paragraph word-wraps text to width columns and writes every wrapped line
// as an informational line.
func (b *Builder) Paragraph(text string, width int) {
	wrap(text, width, b.Text)
}

// Call runs the named helper against this builder.
func (b *Builder) Call(name string, args ...string) error {
	return call(b.helpers, b, name, args)
}

// Bytes returns the menu written so far.
func (b *Builder) Bytes() []byte { return b.buf.Bytes() }

// String returns the menu written so far.
func (b *Builder) String() string { return b.buf.String() }

func (b *Builder) writeLine(t ItemType, title, selector, host, port string) {
	b.buf.WriteByte(byte(t))
	b.buf.WriteString(titleReplacer.Replace(title))
	b.buf.WriteByte('\t')
	b.buf.WriteString(fieldReplacer.Replace(selector))
	b.buf.WriteByte('\t')
	b.buf.WriteString(fieldReplacer.Replace(host))
	b.buf.WriteByte('\t')
	b.buf.WriteString(fieldReplacer.Replace(port))
	b.buf.WriteString("\r\n")
}

// ValidSelector reports whether s can travel in a menu line and come back as
// a request unchanged: no tab, CR or LF.
func ValidSelector(s string) bool {
	return !strings.ContainsAny(s, "\t\r\n")
}

// NormalizeSelector returns selector with exactly one leading "/".
func NormalizeSelector(selector string) string {
	return "/" + strings.TrimLeft(selector, "/")
}

// wrap splits text on newlines, wraps each line to width and hands every
// resulting chunk, trimmed, to emit.
func wrap(text string, width int, emit func(string)) {
	if text == "" {
		return
	}
	if width <= 0 {
		width = DefaultWidth
	}

	text = strings.TrimSuffix(text, "\n")
	for _, line := range strings.Split(text, "\n") {
		wrapped := wordwrap.WrapString(line, uint(width))
		for _, chunk := range strings.Split(wrapped, "\n") {
			emit(strings.TrimSpace(chunk))
		}
	}
}

func call(helpers Helpers, w LineWriter, name string, args []string) error {
	fn, ok := helpers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownHelper, name)
	}
	return fn(w, args...)
}
