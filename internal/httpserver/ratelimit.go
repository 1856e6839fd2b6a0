package httpserver

import (
	"math"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// multiLimiter maintains a separate token bucket for each key. Buckets that
// have not been used within the TTL are discarded.
type multiLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	entries   map[string]*limBucket
	lastSweep time.Time
}

type limBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newMultiLimiter(limit rate.Limit, burst int, ttl time.Duration) *multiLimiter {
	return &multiLimiter{
		limit:     limit,
		burst:     burst,
		ttl:       ttl,
		entries:   make(map[string]*limBucket),
		lastSweep: time.Now(),
	}
}

func (m *multiLimiter) allow(key string) bool {
	return m.allowAt(key, time.Now())
}

func (m *multiLimiter) allowAt(key string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Expired buckets are swept at most once per TTL.
	if now.Sub(m.lastSweep) >= m.ttl {
		for k, v := range m.entries {
			if now.Sub(v.lastSeen) > m.ttl {
				delete(m.entries, k)
			}
		}
		m.lastSweep = now
	}

	b := m.entries[key]
	if b == nil {
		b = &limBucket{lim: rate.NewLimiter(m.limit, m.burst)}
		m.entries[key] = b
	}
	b.lastSeen = now

	return b.lim.AllowN(now, 1)
}

// retryAfter returns the number of whole seconds until a single token is
// replenished.
func (m *multiLimiter) retryAfter() int {
	if m.limit <= 0 || m.limit == rate.Inf {
		return 1
	}
	return int(math.Ceil(1 / float64(m.limit)))
}

// limitWrites wraps h so that each client is subject to the server's write
// rate limit.
func (s *Server) limitWrites(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.writes.allow(s.clientIP(r)) {
			tooMany(w, s.writes.retryAfter())
			return
		}
		h(w, r)
	})
}

// clientIP returns the address of the client that made r.
//
// X-Forwarded-For is only consulted when the request arrives from a trusted
// proxy. The header is read right to left, skipping trusted proxies, so the
// result is the nearest address that a trusted proxy vouched for.
func (s *Server) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		host = r.RemoteAddr
	}

	addr, err := netip.ParseAddr(host)
	if err != nil || !s.isTrustedProxy(addr) {
		return host
	}

	client := addr.Unmap().String()

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}

		client = hop.Unmap().String()

		if !s.isTrustedProxy(hop) {
			break
		}
	}

	return client
}

func (s *Server) isTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()

	for _, p := range s.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}

	return false
}
