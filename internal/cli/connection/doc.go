// Package connection is the relog-cli HTTP client for a running
// relog-server.
package connection
