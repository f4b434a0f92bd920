package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv reads SECURESAFE_* variables from environ. A nil environ means
// the process environment. Unset variables leave fields at their zero value.
func parseEnv(environ map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("%w: environment: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}
