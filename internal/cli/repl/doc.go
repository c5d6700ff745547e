// Package repl provides the interactive shell mode for relog-cli.
//
// Each line is split into arguments, honoring single and double quotes, and
// handed to an Executor. Built-ins:
//
//   - help [prefix]: list commands, optionally filtered by prefix
//   - history: print previous lines
//   - exit, quit: leave the shell
//
// History is kept in memory and, when a file is configured, loaded on start
// and saved on exit.
package repl
