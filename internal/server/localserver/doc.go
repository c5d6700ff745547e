// Package localserver serves the HTTP API on a Unix domain socket for local
// administration.
//
// The socket is created with mode 0600, so file system permissions decide
// who may use it. Requests on the socket skip per-IP rate limiting. A stale
// socket left by a crashed process is removed on start.
package localserver
