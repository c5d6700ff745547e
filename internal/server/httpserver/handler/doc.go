// Package handler implements the relog-server HTTP API: the key/value
// endpoints under /v1/kv, the admin endpoints under /admin/v1 and the health
// check.
//
// JSON responses share the Response envelope. GET /v1/kv/{key} is the
// exception and returns the raw value bytes.
package handler
