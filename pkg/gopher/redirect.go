package gopher

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// RedirectTemplate is the selector template redirect handlers are mounted at.
const RedirectTemplate = "URL:*url"

const redirectPage = `<!DOCTYPE html>
<html>
<head>
<meta http-equiv="refresh" content="2;URL={{.URL}}">
<title>Redirecting to {{.URL}}</title>
</head>
<body>
<p>You are following a link from gopher to a web site. You will be
automatically taken to the web site shortly.</p>
<p>If you do not get sent there, please click <a href="{{.URL}}">here</a>.</p>
<p>The URL linked is: <a href="{{.URL}}">{{.URL}}</a></p>
<p>Thanks for using gopher!</p>
</body>
</html>
`

var redirectSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"ftp":    true,
	"gopher": true,
	"mailto": true,
	"telnet": true,
}

// RedirectHandler answers "URL:<target>" selectors with an HTML page that
// sends web clients on to the target.
type RedirectHandler struct {
	tmpl *template.Template
}

// NewRedirectHandler returns a handler rendering the built-in page.
func NewRedirectHandler() *RedirectHandler {
	return &RedirectHandler{tmpl: template.Must(template.New("redirect").Parse(redirectPage))}
}

// NewRedirectHandlerWithTemplate returns a handler rendering a custom page.
// The template receives a value with a single URL field.
func NewRedirectHandlerWithTemplate(page string) (*RedirectHandler, error) {
	tmpl, err := template.New("redirect").Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parse redirect template: %w", err)
	}
	return &RedirectHandler{tmpl: tmpl}, nil
}

func (h *RedirectHandler) Respond(ctx context.Context, args []string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	target := strings.Join(args, "")
	u, err := url.Parse(target)
	if target == "" || err != nil || !redirectSchemes[strings.ToLower(u.Scheme)] {
		return Response{}, fmt.Errorf("redirect to %q: %w", target, ErrNotFound)
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, struct{ URL string }{URL: target}); err != nil {
		return Response{}, fmt.Errorf("render redirect: %w", err)
	}
	return Text(buf.Bytes()), nil
}
