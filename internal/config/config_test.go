package config_test

import (
	"testing"

	. "github.com/soletrym/snipstore/internal/config"
	"github.com/soletrym/snipstore/internal/telemetry/instrumentedpersistence"
	"github.com/soletrym/snipstore/persistence/driver/memory"
	"golang.org/x/time/rate"
)

type option func(*Config)

func TestNew(t *testing.T) {
	t.Run("it applies defaults", func(t *testing.T) {
		cfg := New[option](nil)

		if cfg.Persistence.Keyspace != DefaultKeyspace {
			t.Fatalf("unexpected keyspace: got %q, want %q", cfg.Persistence.Keyspace, DefaultKeyspace)
		}

		if cfg.HTTP.ListenAddress != DefaultHTTPListenAddress {
			t.Fatalf("unexpected HTTP address: got %q", cfg.HTTP.ListenAddress)
		}

		if cfg.HTTP.TrustedProxies != nil {
			t.Fatalf("expected no trusted proxies by default, got %v", cfg.HTTP.TrustedProxies)
		}

		if cfg.GRPC.ListenAddress != DefaultGRPCListenAddress {
			t.Fatalf("unexpected gRPC address: got %q", cfg.GRPC.ListenAddress)
		}

		if cfg.RateLimit.Limit != DefaultWriteRateLimit || cfg.RateLimit.Burst != DefaultWriteBurst {
			t.Fatalf("unexpected rate limit: got %v/%d", cfg.RateLimit.Limit, cfg.RateLimit.Burst)
		}

		if cfg.Telemetry.Logger == nil || cfg.Telemetry.TracerProvider == nil || cfg.Telemetry.MeterProvider == nil {
			t.Fatal("expected telemetry providers to be populated")
		}

		s, ok := cfg.Persistence.Backend.Store.(*instrumentedpersistence.KeyValueStore)
		if !ok {
			t.Fatalf("expected the store to be instrumented, got %T", cfg.Persistence.Backend.Store)
		}

		if _, ok := s.Next.(*memory.KeyValueStore); !ok {
			t.Fatalf("expected the default store to be in-memory, got %T", s.Next)
		}
	})

	t.Run("explicit options take precedence over defaults", func(t *testing.T) {
		store := &memory.KeyValueStore{}

		cfg := New([]option{
			func(c *Config) {
				c.Persistence.Backend = Backend{Store: store}
				c.Persistence.Keyspace = "custom"
				c.HTTP.ListenAddress = "127.0.0.1:9000"
				c.RateLimit.Limit = rate.Inf
				c.RateLimit.Burst = 1
			},
		})

		s := cfg.Persistence.Backend.Store.(*instrumentedpersistence.KeyValueStore)
		if s.Next != store {
			t.Fatal("expected the explicitly configured store to be used")
		}

		if cfg.Persistence.Keyspace != "custom" {
			t.Fatalf("unexpected keyspace: got %q", cfg.Persistence.Keyspace)
		}

		if cfg.HTTP.ListenAddress != "127.0.0.1:9000" {
			t.Fatalf("unexpected HTTP address: got %q", cfg.HTTP.ListenAddress)
		}

		if cfg.RateLimit.Limit != rate.Inf || cfg.RateLimit.Burst != 1 {
			t.Fatalf("unexpected rate limit: got %v/%d", cfg.RateLimit.Limit, cfg.RateLimit.Burst)
		}
	})
}
