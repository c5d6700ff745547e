// Package command defines the relog-cli commands.
//
// The journal commands (inspect, dump, verify, destroy) work offline on a
// journal directory and never replay it. The kv and server commands talk to
// a running relog-server over HTTP.
package command
