// Package httpserver builds HTTP servers with sane defaults.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server for the ops surface.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
	}
}
