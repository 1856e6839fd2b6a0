package config

import (
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/dogmatiq/ferrite"
)

const (
	// DefaultHTTPListenAddress is the address used by the HTTP server when
	// none is configured.
	DefaultHTTPListenAddress = ":8080"

	// DefaultGRPCListenAddress is the address used by the gRPC server when
	// none is configured.
	DefaultGRPCListenAddress = ":50051"
)

var httpListenAddress = ferrite.
	String("SNIPSTORE_HTTP_LISTEN_ADDRESS", "the address on which the HTTP server listens").
	WithDefault(DefaultHTTPListenAddress).
	WithConstraint(
		"must be a network address",
		isNetworkAddress,
	).
	Optional(ferrite.WithRegistry(FerriteRegistry))

var grpcListenAddress = ferrite.
	String("SNIPSTORE_GRPC_LISTEN_ADDRESS", "the address on which the gRPC server listens").
	WithDefault(DefaultGRPCListenAddress).
	WithConstraint(
		"must be a network address",
		isNetworkAddress,
	).
	Optional(ferrite.WithRegistry(FerriteRegistry))

var trustedProxies = ferrite.
	String("SNIPSTORE_TRUSTED_PROXIES", "comma-separated addresses or CIDR networks of reverse proxies whose X-Forwarded-For header is trusted").
	WithConstraint(
		"must be a comma-separated list of IP addresses or CIDR networks",
		func(v string) bool {
			_, err := ParseTrustedProxies(v)
			return err == nil
		},
	).
	Optional(ferrite.WithRegistry(FerriteRegistry))

// ParseTrustedProxies parses a comma-separated list of IP addresses and CIDR
// networks. A bare address is treated as a network containing only that
// address.
func ParseTrustedProxies(v string) ([]netip.Prefix, error) {
	var networks []netip.Prefix

	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			networks = append(networks, p.Masked())
			continue
		}

		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		networks = append(networks, netip.PrefixFrom(addr, addr.BitLen()))
	}

	if len(networks) == 0 {
		return nil, fmt.Errorf("no addresses in %q", v)
	}

	return networks, nil
}

// isNetworkAddress returns true if v is a host:port pair with a non-empty
// port. The host may be empty, meaning all interfaces.
func isNetworkAddress(v string) bool {
	_, port, err := net.SplitHostPort(v)
	return err == nil && port != ""
}

func (c *Config) finalizeHTTP() {
	if c.HTTP.TrustedProxies == nil && c.UseEnv {
		if v, ok := trustedProxies.Value(); ok {
			networks, err := ParseTrustedProxies(v)
			if err != nil {
				panic(err) // unreachable, the value is validated by ferrite
			}
			c.HTTP.TrustedProxies = networks
		}
	}

	if c.HTTP.ListenAddress != "" {
		return
	}

	if c.UseEnv {
		if addr, ok := httpListenAddress.Value(); ok {
			c.HTTP.ListenAddress = addr
			return
		}
	}

	c.HTTP.ListenAddress = DefaultHTTPListenAddress
}

func (c *Config) finalizeGRPC() {
	if c.GRPC.ListenAddress != "" {
		return
	}

	if c.UseEnv {
		if addr, ok := grpcListenAddress.Value(); ok {
			c.GRPC.ListenAddress = addr
			return
		}
	}

	c.GRPC.ListenAddress = DefaultGRPCListenAddress
}
