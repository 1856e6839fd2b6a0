package config

import (
	"strconv"
	"testing"
)

func TestIsNetworkAddress(t *testing.T) {
	cases := map[string]bool{
		":8080":          true,
		"localhost:8080": true,
		"[::1]:50051":    true,
		"localhost":      false,
		"localhost:":     false,
		"":               false,
	}

	for addr, want := range cases {
		if got := isNetworkAddress(addr); got != want {
			t.Errorf("isNetworkAddress(%q): got %t, want %t", addr, got, want)
		}
	}
}

func TestParseTrustedProxies(t *testing.T) {
	t.Run("it accepts addresses and networks", func(t *testing.T) {
		got, err := ParseTrustedProxies(" 10.1.2.3/8, 192.0.2.7 ,::1,::ffff:198.51.100.1")
		if err != nil {
			t.Fatal(err)
		}

		want := []string{"10.0.0.0/8", "192.0.2.7/32", "::1/128", "198.51.100.1/32"}
		if len(got) != len(want) {
			t.Fatalf("unexpected networks: got %v, want %v", got, want)
		}

		for i, p := range got {
			if p.String() != want[i] {
				t.Errorf("network %d: got %s, want %s", i, p, want[i])
			}
		}
	})

	for _, v := range []string{"", " , ", "10.0.0.0/33", "proxy.local", "10.0.0.1/8/8"} {
		t.Run("it rejects "+strconv.Quote(v), func(t *testing.T) {
			if _, err := ParseTrustedProxies(v); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
