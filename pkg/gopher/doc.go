// Package gopher implements the routing and response side of a Gopher
// server.
//
// An Application owns an ordered Registry of selector patterns. Each pattern
// maps to a Handler that turns the captured parts of a selector into a
// Response, either a complete byte payload (menus, text documents, HTML
// redirect pages) or a stream over a stored file.
//
// Patterns are written as templates:
//
//	/about              literal
//	/users/:name        ":name" captures one path segment
//	/documents/*path    "*path" captures the rest, may be empty or contain "/"
//	URL:*url            wildcards may follow literal text in the last segment
//
// Templates are compiled to anchored regular expressions at registration
// time and tolerate a single optional leading "/" in the request.
//
// Wire handling (reading request lines, writing responses, "not found"
// replies) lives in pkg/adapter/gopher.
package gopher
