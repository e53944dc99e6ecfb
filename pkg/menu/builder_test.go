package menu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeForSelector(t *testing.T) {
	tests := []struct {
		selector string
		want     ItemType
	}{
		{"/pics/cat.jpg", TypeImage},
		{"/pics/CAT.PNG", TypeImage},
		{"song.mp3", TypeAudio},
		{"anim.gif", TypeGIF},
		{"notes.txt", TypeDocument},
		{"README", TypeDocument},
		{"/dir.jpg/file", TypeDocument},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeForSelector(tt.selector))
		})
	}
}

func TestLineNormalizesSelector(t *testing.T) {
	b := NewBuilder("example.org", 7070)
	b.Line(TypeSubmenu, "Docs", "docs", "example.org", 7070)
	b.Line(TypeSubmenu, "Root", "///", "example.org", 7070)

	assert.Equal(t,
		"1Docs\t/docs\texample.org\t7070\r\n"+
			"1Root\t/\texample.org\t7070\r\n",
		b.String())
}

func TestLinkInfersType(t *testing.T) {
	b := NewBuilder("localhost", 70)
	b.Link("A cat", "/pics/cat.jpg")
	b.Link("Notes", "notes.txt")
	b.Submenu("More", "/more")

	assert.Equal(t,
		"IA cat\t/pics/cat.jpg\tlocalhost\t70\r\n"+
			"0Notes\t/notes.txt\tlocalhost\t70\r\n"+
			"1More\t/more\tlocalhost\t70\r\n",
		b.String())
}

func TestTextIgnoresHostAndPort(t *testing.T) {
	b := NewBuilder("example.org", 7070)
	b.Text("hello")

	assert.Equal(t, "ihello\t(NULL)\t(NULL)\t0\r\n", b.String())
}

func TestTitleCannotBreakLine(t *testing.T) {
	b := NewBuilder("localhost", 70)
	b.Text("a\tb\r\nc")

	assert.Equal(t, "ia b c\t(NULL)\t(NULL)\t0\r\n", b.String())
}

func TestURL(t *testing.T) {
	b := NewBuilder("localhost", 70)
	b.URL("Site", "https://example.com/x")

	assert.Equal(t, "hSite\t/URL:https://example.com/x\tlocalhost\t70\r\n", b.String())
}

func TestParagraphWraps(t *testing.T) {
	b := NewBuilder("localhost", 70)
	b.Paragraph(strings.Repeat("word ", 30), 0)

	lines := strings.Split(strings.TrimSuffix(b.String(), "\r\n"), "\r\n")
	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		require.True(t, strings.HasPrefix(line, "i"))
		title := strings.SplitN(line[1:], "\t", 2)[0]
		assert.LessOrEqual(t, len(title), DefaultWidth)
		assert.Equal(t, strings.TrimSpace(title), title)
		assert.True(t, strings.HasSuffix(line, "\t(NULL)\t(NULL)\t0"))
	}
}

func TestParagraphKeepsLineBreaks(t *testing.T) {
	b := NewBuilder("localhost", 70)
	b.Paragraph("first\nsecond\n", 70)

	assert.Equal(t,
		"ifirst\t(NULL)\t(NULL)\t0\r\n"+
			"isecond\t(NULL)\t(NULL)\t0\r\n",
		b.String())
}

func TestParagraphEmpty(t *testing.T) {
	b := NewBuilder("localhost", 70)
	b.Paragraph("", 70)
	assert.Empty(t, b.String())
}

func TestHelpers(t *testing.T) {
	ruler := func(w LineWriter, args ...string) error {
		w.Text(strings.Repeat("-", 3))
		return nil
	}

	b := NewBuilder("localhost", 70, WithHelper("ruler", ruler))
	require.NoError(t, b.Call("ruler"))
	assert.Equal(t, "i---\t(NULL)\t(NULL)\t0\r\n", b.String())

	err := b.Call("missing")
	assert.ErrorIs(t, err, ErrUnknownHelper)

	// Helpers are scoped to the builder they were given to.
	other := NewBuilder("localhost", 70)
	assert.ErrorIs(t, other.Call("ruler"), ErrUnknownHelper)
}

func TestSelectorCannotBreakLine(t *testing.T) {
	b := NewBuilder("localhost", 70)
	b.Link("x", "a\r\n1evil\tx\tevil.host\t70")

	assert.Equal(t, "0x\t/a1evilxevil.host70\tlocalhost\t70\r\n", b.String())
	assert.Equal(t, 1, strings.Count(b.String(), "\r\n"))
}

func TestValidSelector(t *testing.T) {
	assert.True(t, ValidSelector("docs/a file.txt"))
	assert.False(t, ValidSelector("a\tb"))
	assert.False(t, ValidSelector("a\rb"))
	assert.False(t, ValidSelector("a\nb"))
}
