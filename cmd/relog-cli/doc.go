// Package main provides the entry point for relog-cli.
//
// relog-cli works on journal directories directly (inspect, dump, verify,
// destroy) and talks to a running relog-server over HTTP (kv, server).
package main
