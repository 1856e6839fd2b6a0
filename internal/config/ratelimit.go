package config

import (
	"github.com/dogmatiq/ferrite"
	"golang.org/x/time/rate"
)

const (
	// DefaultWriteRateLimit is the default number of writes per second
	// permitted for each client.
	DefaultWriteRateLimit = 5

	// DefaultWriteBurst is the default number of writes a client may make in
	// a single burst.
	DefaultWriteBurst = 10
)

var writeRateLimit = ferrite.
	Float[float64]("SNIPSTORE_WRITE_RATE_LIMIT", "the number of writes per second permitted for each client").
	WithDefault(DefaultWriteRateLimit).
	WithMinimum(0).
	Optional(ferrite.WithRegistry(FerriteRegistry))

var writeBurst = ferrite.
	Unsigned[uint]("SNIPSTORE_WRITE_BURST", "the number of writes a client may make in a single burst").
	WithDefault(DefaultWriteBurst).
	WithMinimum(1).
	Optional(ferrite.WithRegistry(FerriteRegistry))

func (c *Config) finalizeRateLimit() {
	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = DefaultWriteRateLimit

		if c.UseEnv {
			if v, ok := writeRateLimit.Value(); ok {
				c.RateLimit.Limit = rate.Limit(v)
			}
		}
	}

	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = DefaultWriteBurst

		if c.UseEnv {
			if v, ok := writeBurst.Value(); ok {
				c.RateLimit.Burst = int(v)
			}
		}
	}
}
