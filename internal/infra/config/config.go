package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Parse loads configuration values from environment variables into the given
// struct. Fields are declared with `env` tags, optional `envDefault` values
// and `envPrefix` tags on nested structs. All variable names are prefixed
// with the uppercased namespace, e.g. namespace "GAMEAUTH_AUTHSVC" resolves
// the tag `env:"SERVER_ADDR"` against GAMEAUTH_AUTHSVC_SERVER_ADDR.
func Parse(cfg any, namespace string) error {
	opts := env.Options{}
	if namespace != "" {
		opts.Prefix = namespace + "_"
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}
