// Package config provides the relog-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation
//   - sanitize.go: secret masking for logs
//   - load.go: layered loading through internal/infra/confloader
//   - security.go: building the payload cipher from the configured key
package config
