package gopher

import (
	"fmt"
	"regexp"
	"strings"
)

var dotRuns = regexp.MustCompile(`\.+`)

// Sanitize trims surrounding whitespace and collapses every run of dots into
// a single dot. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(selector string) string {
	return dotRuns.ReplaceAllString(strings.TrimSpace(selector), ".")
}

// Pattern is a compiled selector template.
type Pattern struct {
	template string
	re       *regexp.Regexp
	names    []string
}

// CompilePattern compiles a selector template. The template is sanitized
// and stripped of leading slashes first. A "*" wildcard must be the last
// element of the template.
func CompilePattern(template string) (*Pattern, error) {
	tpl := strings.TrimLeft(Sanitize(template), "/")

	var (
		expr  strings.Builder
		names []string
	)
	expr.WriteString(`^/?`)

	for i := 0; i < len(tpl); {
		c := tpl[i]
		switch {
		case c == ':' && i+1 < len(tpl) && isNameByte(tpl[i+1]):
			name, next := scanName(tpl, i+1)
			names = append(names, name)
			expr.WriteString(`([^/]+)`)
			i = next

		case c == '*':
			name, next := scanName(tpl, i+1)
			if next != len(tpl) {
				return nil, fmt.Errorf("%w %q: wildcard must be last", ErrInvalidPattern, template)
			}
			names = append(names, name)
			// "dir/*rest" also matches "dir" itself.
			if strings.HasSuffix(tpl[:i], "/") {
				trimmed := strings.TrimSuffix(expr.String(), "/")
				expr.Reset()
				expr.WriteString(trimmed)
				expr.WriteString(`(?:/(.*))?`)
			} else {
				expr.WriteString(`(.*)`)
			}
			i = next

		default:
			expr.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	expr.WriteString(`$`)

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, template, err)
	}

	return &Pattern{template: template, re: re, names: names}, nil
}

// Template returns the template the pattern was compiled from.
func (p *Pattern) Template() string { return p.template }

// Names returns the capture names in template order. Unnamed wildcards
// have an empty name.
func (p *Pattern) Names() []string { return p.names }

// Match reports whether the selector matches and returns the captures in
// order. The selector is matched as given; callers sanitize it.
func (p *Pattern) Match(selector string) ([]string, bool) {
	m := p.re.FindStringSubmatch(selector)
	if m == nil {
		return nil, false
	}
	args := make([]string, len(m)-1)
	copy(args, m[1:])
	return args, true
}

func (p *Pattern) String() string { return p.re.String() }

func isNameByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func scanName(s string, i int) (string, int) {
	j := i
	for j < len(s) && isNameByte(s[j]) {
		j++
	}
	return s[i:j], j
}
