// Package mongo provides a key/value store that persists keyspaces in a
// MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"sync"

	"github.com/soletrym/snipstore/persistence/kv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// KeyValueStore is an implementation of [kv.Store] that stores keyspaces in a
// MongoDB collection.
//
// Each key/value pair is a single document. A unique index over the keyspace
// and key is created the first time a keyspace is opened.
type KeyValueStore struct {
	// Collection is the collection used for storage of key/value pairs.
	Collection *mongo.Collection

	m       sync.Mutex
	indexed bool
}

const (
	kvKeyspaceField = "keyspace"
	kvKeyField      = "key"
	kvValueField    = "value"
)

// Open returns the keyspace with the given name.
func (s *KeyValueStore) Open(ctx context.Context, name string) (kv.Keyspace, error) {
	if err := s.createIndex(ctx); err != nil {
		return nil, err
	}

	return &keyspace{
		Name:       name,
		Collection: s.Collection,
	}, nil
}

func (s *KeyValueStore) createIndex(ctx context.Context) error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.indexed {
		return nil
	}

	if _, err := s.Collection.Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.D{
				{Key: kvKeyspaceField, Value: 1},
				{Key: kvKeyField, Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	); err != nil {
		return err
	}

	s.indexed = true
	return nil
}

type keyspace struct {
	Name       string
	Collection *mongo.Collection
}

type document struct {
	Key   []byte `bson:"key"`
	Value []byte `bson:"value"`
}

func (ks *keyspace) filter(k []byte) bson.D {
	return bson.D{
		{Key: kvKeyspaceField, Value: ks.Name},
		{Key: kvKeyField, Value: k},
	}
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	var doc document

	err := ks.Collection.
		FindOne(
			ctx,
			ks.filter(k),
			options.FindOne().SetProjection(bson.M{kvValueField: 1}),
		).
		Decode(&doc)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if doc.Value == nil {
		doc.Value = []byte{}
	}

	return doc.Value, true, nil
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	n, err := ks.Collection.CountDocuments(
		ctx,
		ks.filter(k),
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}

	return n != 0, nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte) error {
	if v == nil {
		v = []byte{}
	}

	_, err := ks.Collection.UpdateOne(
		ctx,
		ks.filter(k),
		bson.M{
			"$set": bson.M{
				kvValueField: v,
			},
		},
		options.Update().SetUpsert(true),
	)

	return err
}

func (ks *keyspace) Delete(ctx context.Context, k []byte) error {
	_, err := ks.Collection.DeleteOne(ctx, ks.filter(k))
	return err
}

func (ks *keyspace) Range(
	ctx context.Context,
	fn kv.RangeFunc,
) error {
	cur, err := ks.Collection.Find(
		ctx,
		bson.D{{Key: kvKeyspaceField, Value: ks.Name}},
		options.Find().SetProjection(bson.M{kvKeyField: 1, kvValueField: 1}),
	)
	if err != nil {
		return err
	}
	defer cur.Close(ctx) // nolint:errcheck

	for cur.Next(ctx) {
		var doc document
		if err := cur.Decode(&doc); err != nil {
			return err
		}

		if doc.Value == nil {
			doc.Value = []byte{}
		}

		ok, err := fn(ctx, doc.Key, doc.Value)
		if !ok || err != nil {
			return err
		}
	}

	return cur.Err()
}

func (ks *keyspace) Close() error {
	return nil
}
