package config

import (
	"net/netip"

	"github.com/dogmatiq/ferrite"
	"github.com/soletrym/snipstore/internal/telemetry"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

// FerriteRegistry is a registry of the environment variables used by the
// snippet store.
var FerriteRegistry = ferrite.NewRegistry(
	"soletrym.snipstore",
	"snipstore",
	ferrite.WithDocumentationURL("https://github.com/soletrym/snipstore#readme"),
)

// Config encapsulates the configuration of a [snipstore.Store] and the
// servers that expose it, built by applying option functions.
type Config struct {
	UseEnv    bool
	Telemetry *telemetry.Provider

	Persistence struct {
		Backend  Backend
		Keyspace string
	}

	HTTP struct {
		ListenAddress  string
		TrustedProxies []netip.Prefix
	}

	GRPC struct {
		ListenAddress string
		ServerOptions []grpc.ServerOption
	}

	RateLimit struct {
		Limit rate.Limit
		Burst int
	}
}

// New returns a new configuration built by applying the given options.
func New[Option ~func(*Config)](options []Option) Config {
	c := Config{
		Telemetry: &telemetry.Provider{},
	}

	for _, opt := range options {
		opt(&c)
	}

	c.finalize()

	return c
}

func (c *Config) finalize() {
	c.finalizeTelemetry()
	c.finalizePersistence()
	c.finalizeHTTP()
	c.finalizeGRPC()
	c.finalizeRateLimit()
}
