package menu

import "bytes"

// TextBuilder accumulates a plain text document, one CRLF terminated line
// at a time.
type TextBuilder struct {
	buf     bytes.Buffer
	helpers Helpers
}

// NewTextBuilder returns an empty text document.
func NewTextBuilder(opts ...Option) *TextBuilder {
	o := buildOptions(opts)
	return &TextBuilder{helpers: o.helpers}
}

// Line appends text followed by CRLF.
func (t *TextBuilder) Line(text string) {
	t.buf.WriteString(text)
	t.buf.WriteString("\r\n")
}

// Text is Line; it lets helpers written against LineWriter run on text
// documents too.
func (t *TextBuilder) Text(text string) {
	t.Line(text)
}

// Paragraph word-wraps text to width columns, one line per chunk.
func (t *TextBuilder) Paragraph(text string, width int) {
	wrap(text, width, t.Line)
}

// Call runs the named helper against this document.
func (t *TextBuilder) Call(name string, args ...string) error {
	return call(t.helpers, t, name, args)
}

func (t *TextBuilder) Bytes() []byte  { return t.buf.Bytes() }
func (t *TextBuilder) String() string { return t.buf.String() }
