package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// RunTests runs tests that confirm a key/value store implementation behaves
// correctly.
func RunTests(
	t *testing.T,
	newStore func(t *testing.T) Store,
) {
	t.Run("type Store", func(t *testing.T) {
		t.Run("func Open()", func(t *testing.T) {
			t.Run("keyspaces with different names are isolated", func(t *testing.T) {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()

				store := newStore(t)
				prefix := uuid.NewString()

				names := []string{
					prefix + "foobar",
					prefix + "foo/bar",
					prefix + "foo.bar",
					prefix + "foo",
				}

				for i, name := range names {
					func() {
						ks, err := store.Open(ctx, name)
						if err != nil {
							t.Fatal(err)
						}
						defer ks.Close()

						expect := []byte(fmt.Sprintf("<value-%d>", i))
						if err := ks.Set(ctx, []byte("<key>"), expect); err != nil {
							t.Fatal(err)
						}
					}()
				}

				for i, name := range names {
					func() {
						ks, err := store.Open(ctx, name)
						if err != nil {
							t.Fatal(err)
						}
						defer ks.Close()

						expect := []byte(fmt.Sprintf("<value-%d>", i))
						actual, ok, err := ks.Get(ctx, []byte("<key>"))
						if err != nil {
							t.Fatal(err)
						}
						if !ok {
							t.Fatalf("expected key to exist in keyspace %q", name)
						}

						if !bytes.Equal(expect, actual) {
							t.Fatalf(
								"unexpected value, want %q, got %q",
								string(expect),
								string(actual),
							)
						}
					}()
				}
			})

			t.Run("allows keyspaces to be opened multiple times", func(t *testing.T) {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()

				store := newStore(t)
				name := uuid.NewString()

				ks1, err := store.Open(ctx, name)
				if err != nil {
					t.Fatal(err)
				}
				defer ks1.Close()

				ks2, err := store.Open(ctx, name)
				if err != nil {
					t.Fatal(err)
				}
				defer ks2.Close()

				expect := []byte("<value>")
				if err := ks1.Set(ctx, []byte("<key>"), expect); err != nil {
					t.Fatal(err)
				}

				actual, ok, err := ks2.Get(ctx, []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected key to exist")
				}

				if !bytes.Equal(expect, actual) {
					t.Fatalf(
						"unexpected value, want %q, got %q",
						string(expect),
						string(actual),
					)
				}
			})
		})
	})

	t.Run("type Keyspace", func(t *testing.T) {
		t.Run("func Get()", func(t *testing.T) {
			t.Run("it reports that the key does not exist", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				v, ok, err := ks.Get(ctx, []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected ok to be false")
				}
				if len(v) != 0 {
					t.Fatal("expected zero-length value")
				}
			})

			t.Run("it reports that the key does not exist after it is deleted", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				k := []byte("<key>")

				if err := ks.Set(ctx, k, []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				if err := ks.Delete(ctx, k); err != nil {
					t.Fatal(err)
				}

				_, ok, err := ks.Get(ctx, k)
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected ok to be false")
				}
			})

			t.Run("it returns the value if the key exists", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				for i := 0; i < 5; i++ {
					k := []byte(fmt.Sprintf("<key-%d>", i))
					v := []byte(fmt.Sprintf("<value-%d>", i))

					if err := ks.Set(ctx, k, v); err != nil {
						t.Fatal(err)
					}
				}

				for i := 0; i < 5; i++ {
					k := []byte(fmt.Sprintf("<key-%d>", i))
					expect := []byte(fmt.Sprintf("<value-%d>", i))

					actual, ok, err := ks.Get(ctx, k)
					if err != nil {
						t.Fatal(err)
					}
					if !ok {
						t.Fatalf("expected %q to exist", string(k))
					}

					if !bytes.Equal(expect, actual) {
						t.Fatalf(
							"unexpected value, want %q, got %q",
							string(expect),
							string(actual),
						)
					}
				}
			})

			t.Run("it distinguishes an empty value from a missing key", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				k := []byte("<key>")

				if err := ks.Set(ctx, k, nil); err != nil {
					t.Fatal(err)
				}

				v, ok, err := ks.Get(ctx, k)
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected ok to be true")
				}
				if len(v) != 0 {
					t.Fatalf("expected zero-length value, got %q", string(v))
				}
			})

			t.Run("it returns the most recently set value", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				k := []byte("<key>")

				if err := ks.Set(ctx, k, []byte("<first>")); err != nil {
					t.Fatal(err)
				}

				if err := ks.Set(ctx, k, []byte("<second>")); err != nil {
					t.Fatal(err)
				}

				v, _, err := ks.Get(ctx, k)
				if err != nil {
					t.Fatal(err)
				}

				if diff := cmp.Diff("<second>", string(v)); diff != "" {
					t.Fatal(diff)
				}
			})

			t.Run("it preserves keys and values verbatim", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				pairs := map[string]string{
					"../escape":        "dot-dot",
					"a/b/c":            "slashes",
					"UPPER":            "upper",
					"upper":            "lower",
					"\x00\xff\xfe":     "binary key",
					"unicode-æøå":      "Fant ingen tekst for denne lenken.",
					"<multi-line>":     "line 1\nline 2\r\n\ttabbed  ",
					"<binary-value>":   "\x00\x01\x02\xff",
					"<leading-spaces>": "   ",
				}

				for k, v := range pairs {
					if err := ks.Set(ctx, []byte(k), []byte(v)); err != nil {
						t.Fatal(err)
					}
				}

				for k, expect := range pairs {
					actual, ok, err := ks.Get(ctx, []byte(k))
					if err != nil {
						t.Fatal(err)
					}
					if !ok {
						t.Fatalf("expected %q to exist", k)
					}

					if diff := cmp.Diff(expect, string(actual)); diff != "" {
						t.Fatal(diff)
					}
				}
			})
		})

		t.Run("func Has()", func(t *testing.T) {
			t.Run("it returns false if the key doesn't exist", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				ok, err := ks.Has(ctx, []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected ok to be false")
				}
			})

			t.Run("it returns true if the key exists", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				k := []byte("<key>")

				if err := ks.Set(ctx, k, []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				ok, err := ks.Has(ctx, k)
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected ok to be true")
				}
			})

			t.Run("it returns true if the key has an empty value", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				k := []byte("<key>")

				if err := ks.Set(ctx, k, []byte{}); err != nil {
					t.Fatal(err)
				}

				ok, err := ks.Has(ctx, k)
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected ok to be true")
				}
			})

			t.Run("it returns false if the key has been deleted", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				k := []byte("<key>")

				if err := ks.Set(ctx, k, []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				if err := ks.Delete(ctx, k); err != nil {
					t.Fatal(err)
				}

				ok, err := ks.Has(ctx, k)
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected ok to be false")
				}
			})
		})

		t.Run("func Delete()", func(t *testing.T) {
			t.Run("it does not fail if the key doesn't exist", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				if err := ks.Delete(ctx, []byte("<key>")); err != nil {
					t.Fatal(err)
				}
			})

			t.Run("it does not affect other keys", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				if err := ks.Set(ctx, []byte("<key-1>"), []byte("<value-1>")); err != nil {
					t.Fatal(err)
				}

				if err := ks.Set(ctx, []byte("<key-2>"), []byte("<value-2>")); err != nil {
					t.Fatal(err)
				}

				if err := ks.Delete(ctx, []byte("<key-1>")); err != nil {
					t.Fatal(err)
				}

				ok, err := ks.Has(ctx, []byte("<key-2>"))
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected <key-2> to be retained")
				}
			})
		})

		t.Run("func Range()", func(t *testing.T) {
			t.Run("calls the function for each key in the keyspace", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				expect := map[string]string{}

				for n := uint64(0); n < 100; n++ {
					k := fmt.Sprintf("<key-%d>", n)
					v := fmt.Sprintf("<value-%d>", n)
					if err := ks.Set(ctx, []byte(k), []byte(v)); err != nil {
						t.Fatal(err)
					}

					expect[k] = v
				}

				actual := map[string]string{}

				if err := ks.Range(
					ctx,
					func(ctx context.Context, k, v []byte) (bool, error) {
						actual[string(k)] = string(v)
						return true, nil
					},
				); err != nil {
					t.Fatal(err)
				}

				if diff := cmp.Diff(expect, actual); diff != "" {
					t.Fatal(diff)
				}
			})

			t.Run("it stops iterating if the function returns false", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				for n := uint64(0); n < 2; n++ {
					k := fmt.Sprintf("<key-%d>", n)
					v := fmt.Sprintf("<value-%d>", n)
					if err := ks.Set(ctx, []byte(k), []byte(v)); err != nil {
						t.Fatal(err)
					}
				}

				called := false
				if err := ks.Range(
					ctx,
					func(ctx context.Context, k, v []byte) (bool, error) {
						if called {
							return false, errors.New("unexpected call")
						}

						called = true
						return false, nil
					},
				); err != nil {
					t.Fatal(err)
				}
			})

			t.Run("it returns the error returned by the function", func(t *testing.T) {
				t.Parallel()

				ctx, ks := setup(t, newStore)

				if err := ks.Set(ctx, []byte("<key>"), []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				want := errors.New("<error>")

				err := ks.Range(
					ctx,
					func(ctx context.Context, k, v []byte) (bool, error) {
						return true, want
					},
				)
				if !errors.Is(err, want) {
					t.Fatalf("unexpected error, want %q, got %q", want, err)
				}
			})
		})
	})
}

func setup(
	t *testing.T,
	newStore func(t *testing.T) Store,
) (context.Context, Keyspace) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	store := newStore(t)

	ks, err := store.Open(ctx, uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := ks.Close(); err != nil {
			t.Fatal(err)
		}
	})

	return ctx, ks
}
