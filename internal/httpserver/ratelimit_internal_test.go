package httpserver

import (
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestMultiLimiter_allow(t *testing.T) {
	ml := newMultiLimiter(rate.Limit(2), 2, time.Minute)

	if !ml.allow("<key>") {
		t.Fatal("first allow should pass")
	}

	if !ml.allow("<key>") {
		t.Fatal("second allow should pass")
	}

	if ml.allow("<key>") {
		t.Fatal("third allow should be rate limited")
	}

	if !ml.allow("<other>") {
		t.Fatal("other keys should have their own bucket")
	}
}

func TestMultiLimiter_sweep(t *testing.T) {
	start := time.Now()
	ml := newMultiLimiter(rate.Limit(1), 1, time.Minute)
	ml.lastSweep = start

	ml.allowAt("<stale>", start)
	ml.allowAt("<fresh>", start.Add(50*time.Second))

	if len(ml.entries) != 2 {
		t.Fatalf("expected no sweep within the TTL, got %d entries", len(ml.entries))
	}

	ml.allowAt("<fresh>", start.Add(70*time.Second))

	if _, ok := ml.entries["<stale>"]; ok {
		t.Fatal("expected the stale bucket to be swept")
	}

	if _, ok := ml.entries["<fresh>"]; !ok {
		t.Fatal("expected the recently used bucket to be kept")
	}

	ml.allowAt("<other>", start.Add(80*time.Second))

	if !ml.lastSweep.Equal(start.Add(70 * time.Second)) {
		t.Fatalf("expected at most one sweep per TTL, last sweep at %s", ml.lastSweep.Sub(start))
	}
}

func TestServer_clientIP(t *testing.T) {
	t.Run("it ignores X-Forwarded-For without trusted proxies", func(t *testing.T) {
		s := New(nil, nil, rate.Inf, 1)

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "198.51.100.7:1234"

		if got := s.clientIP(r); got != "198.51.100.7" {
			t.Fatalf("unexpected IP from remote address: %q", got)
		}

		r.Header.Set("X-Forwarded-For", "203.0.113.9")

		if got := s.clientIP(r); got != "198.51.100.7" {
			t.Fatalf("expected X-Forwarded-For to be ignored, got %q", got)
		}
	})

	t.Run("it ignores X-Forwarded-For from an untrusted peer", func(t *testing.T) {
		s := New(nil, nil, rate.Inf, 1, WithTrustedProxies(netip.MustParsePrefix("10.0.0.0/8")))

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "198.51.100.7:1234"
		r.Header.Set("X-Forwarded-For", "203.0.113.9")

		if got := s.clientIP(r); got != "198.51.100.7" {
			t.Fatalf("expected X-Forwarded-For to be ignored, got %q", got)
		}
	})

	t.Run("it uses the nearest untrusted hop behind a trusted proxy", func(t *testing.T) {
		s := New(nil, nil, rate.Inf, 1, WithTrustedProxies(netip.MustParsePrefix("10.0.0.0/8")))

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.2:1234"
		r.Header.Set("X-Forwarded-For", "192.0.2.99, 203.0.113.9, 10.0.0.1")

		if got := s.clientIP(r); got != "203.0.113.9" {
			t.Fatalf("unexpected IP from X-Forwarded-For: %q", got)
		}
	})

	t.Run("it stops at a malformed hop", func(t *testing.T) {
		s := New(nil, nil, rate.Inf, 1, WithTrustedProxies(netip.MustParsePrefix("10.0.0.0/8")))

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.2:1234"
		r.Header.Set("X-Forwarded-For", "<garbage>, 10.0.0.1")

		if got := s.clientIP(r); got != "10.0.0.1" {
			t.Fatalf("unexpected IP: %q", got)
		}
	})
}
