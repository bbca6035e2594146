package server

import (
	"net/http"
)

var defaultMux = http.NewServeMux()

// Register registers a handler served by all servers created
// with default handlers.
func Register(pattern string, handler http.Handler) {
	defaultMux.Handle(pattern, handler)
}
