package mongo_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/soletrym/snipstore/persistence/driver/mongo"
	"github.com/soletrym/snipstore/persistence/kv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestKV(t *testing.T) {
	uri := os.Getenv("SNIPSTORE_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("SNIPSTORE_TEST_MONGODB_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatal(err)
	}

	db := client.Database("snipstore_" + strings.ReplaceAll(uuid.NewString(), "-", ""))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := db.Drop(ctx); err != nil {
			t.Error(err)
		}

		if err := client.Disconnect(ctx); err != nil {
			t.Error(err)
		}
	})

	coll := db.Collection("kv")

	kv.RunTests(
		t,
		func(t *testing.T) kv.Store {
			return &KeyValueStore{
				Collection: coll,
			}
		},
	)
}
