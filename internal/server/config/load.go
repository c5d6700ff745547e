package config

import (
	"fmt"

	"github.com/yndnr/relog-go/internal/infra/confloader"
)

// Load builds the configuration from defaults, the optional YAML file at
// path, RELOG_* environment variables and overrides, then verifies it.
func Load(path string, overrides map[string]any) (*ServerConfig, error) {
	cfg := Default()
	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
