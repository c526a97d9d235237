package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays variables prefixed with PROFILEKEEPER_, e.g.
// PROFILEKEEPER_SECRET_KEY. Unset variables leave the current value alone.
func parseEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: "PROFILEKEEPER_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
