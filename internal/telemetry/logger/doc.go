// Package logger builds the process-wide log/slog logger.
//
//   - logger.go: handler selection (json/text) and the dynamic level
//   - context.go: request ID propagation through context.Context
//   - redact.go: masking of key material and credentials
//
// Components receive a *slog.Logger; nothing outside this package needs
// to know which handler is installed.
package logger
