package config

import "github.com/yndnr/relog-go/internal/telemetry/logger"

// Sanitize returns a copy of the config with sensitive fields masked, for
// logging.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Security.EncryptionKey = logger.Redact(cfg.Security.EncryptionKey)
	return &sanitized
}
