package gopher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a...b", "a.b"},
		{"  /docs/readme.txt\r\n", "/docs/readme.txt"},
		{"/../../etc/passwd", "/././etc/passwd"},
		{"plain", "plain"},
		{"", ""},
		{"\t..\t", "."},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Sanitize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Sanitize(got), "sanitize must be idempotent")
		})
	}
}

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		template string
		selector string
		match    bool
		args     []string
	}{
		{"/about", "/about", true, []string{}},
		{"/about", "about", true, []string{}},
		{"/about", "//about", false, nil},
		{"/about", "/about/more", false, nil},
		{"/users/:name", "/users/bob", true, []string{"bob"}},
		{"/users/:name", "/users/bob/x", false, nil},
		{"/a/:x/b/:y", "a/1/b/2", true, []string{"1", "2"}},
		{"/documents/*path", "/documents", true, []string{""}},
		{"/documents/*path", "/documents/", true, []string{""}},
		{"/documents/*path", "/documents/a/b.txt", true, []string{"a/b.txt"}},
		{"/documents/*path", "/documentsX", false, nil},
		{"URL:*url", "URL:https://example.com/x", true, []string{"https://example.com/x"}},
		{"/*", "/anything/at/all", true, []string{"anything/at/all"}},
		{"/", "", true, []string{}},
		{"/", "/", true, []string{}},
		{"/a.b", "/aXb", false, nil},
		{"/x(y)", "/x(y)", true, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.template+" "+tt.selector, func(t *testing.T) {
			p, err := CompilePattern(tt.template)
			require.NoError(t, err)

			args, ok := p.Match(tt.selector)
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestCompilePatternNames(t *testing.T) {
	p, err := CompilePattern("/a/:first/*rest")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "rest"}, p.Names())
	assert.Equal(t, "/a/:first/*rest", p.Template())
}

func TestCompilePatternRejectsInnerWildcard(t *testing.T) {
	_, err := CompilePattern("/a/*rest/b")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
