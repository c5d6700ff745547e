// Package main provides the entry point for relog-server.
//
// The server keeps a durable key/value store in a ReLog journal and serves
// it over HTTP:
//
//   - /v1/kv/{key} for reads and writes
//   - /admin/v1/* for status, snapshots and health
//   - /metrics for Prometheus
//
// Usage:
//
//	relog-server [flags]
//	relog-server --config /path/to/config.yaml
//	relog-server -c relog.jsonc -d /var/lib/relog --log-level debug
//
// When a config file is given it is watched, and a changed log.level is
// applied without a restart.
package main
