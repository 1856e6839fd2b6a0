package snipstore_test

import (
	"testing"

	. "github.com/soletrym/snipstore"
)

func TestOptions_panicOnInvalidArguments(t *testing.T) {
	t.Parallel()

	cases := map[string]func(){
		"WithKeyValueStore":  func() { WithKeyValueStore(nil) },
		"WithKeyspace":       func() { WithKeyspace("") },
		"WithTracerProvider": func() { WithTracerProvider(nil) },
		"WithMeterProvider":  func() { WithMeterProvider(nil) },
		"WithLogger":         func() { WithLogger(nil) },
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			defer func() {
				if recover() == nil {
					t.Fatal("expected a panic")
				}
			}()

			fn()
		})
	}
}
