package awsx_test

import (
	"context"
	"testing"

	. "github.com/soletrym/snipstore/persistence/driver/aws/internal/awsx"
)

type input struct {
	Name string
}

type options struct {
	Applied []string
}

func TestDo(t *testing.T) {
	t.Run("it applies the decorator before sending the request", func(t *testing.T) {
		in := &input{Name: "<original>"}

		var sent string
		var opts options

		_, err := Do(
			context.Background(),
			func(_ context.Context, in *input, fns ...func(*options)) (struct{}, error) {
				sent = in.Name
				for _, fn := range fns {
					fn(&opts)
				}
				return struct{}{}, nil
			},
			func(in *input) []func(*options) {
				in.Name = "<decorated>"
				return []func(*options){
					func(o *options) { o.Applied = append(o.Applied, "<decorator>") },
				}
			},
			in,
			func(o *options) { o.Applied = append(o.Applied, "<explicit>") },
		)
		if err != nil {
			t.Fatal(err)
		}

		if sent != "<decorated>" {
			t.Fatalf("unexpected request name: got %q", sent)
		}

		if len(opts.Applied) != 2 || opts.Applied[0] != "<explicit>" || opts.Applied[1] != "<decorator>" {
			t.Fatalf("unexpected options: %v", opts.Applied)
		}
	})

	t.Run("it allows a nil decorator", func(t *testing.T) {
		out, err := Do(
			context.Background(),
			func(_ context.Context, in *input, _ ...func(*options)) (string, error) {
				return in.Name, nil
			},
			nil,
			&input{Name: "<name>"},
		)
		if err != nil {
			t.Fatal(err)
		}

		if out != "<name>" {
			t.Fatalf("unexpected output: got %q", out)
		}
	})
}
