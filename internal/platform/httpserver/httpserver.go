// Package httpserver builds the process HTTP server with sane timeouts.
package httpserver

import (
	"net/http"
	"time"
)

// New returns an http.Server configured for the given address and handler.
// Write timeout is generous because device-flow status requests are cheap
// but connect requests wait on several upstream GitHub calls.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
