package middleware

import "strings"

// RoutePattern maps a request path to its route template so that metric
// labels and span names stay low-cardinality.
func RoutePattern(path string) string {
	switch {
	case path == "/todos":
		return "/todos"
	case strings.HasPrefix(path, "/todos/"):
		return "/todos/{id}"
	case path == "/health", path == "/metrics":
		return path
	default:
		return "unmatched"
	}
}
