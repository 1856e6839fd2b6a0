package snipstore

import "github.com/soletrym/snipstore/internal/config"

// FerriteRegistry is a registry of the environment variables used by the
// snippet store.
//
// It can be used with the [ferrite] package.
var FerriteRegistry = config.FerriteRegistry

// An Option configures the behavior of a [Store].
type Option func(*config.Config)

// WithOptionsFromEnvironment is an [Option] that configures the store using
// options specified via environment variables.
//
// Any explicit options passed to [New] take precedence over options from the
// environment.
func WithOptionsFromEnvironment() Option {
	return func(cfg *config.Config) {
		cfg.UseEnv = true
	}
}
