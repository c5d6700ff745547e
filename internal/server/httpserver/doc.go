// Package httpserver provides the HTTP server for relog-server.
//
// It uses net/http and the method-aware ServeMux patterns for routing. The
// middleware chain adds request IDs, panic recovery, per-client rate
// limiting, access logging and request metrics.
package httpserver
