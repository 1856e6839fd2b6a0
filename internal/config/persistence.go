package config

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dogmatiq/ferrite"
	_ "github.com/jackc/pgx/v4/stdlib" // registers the "pgx" database/sql driver
	"github.com/soletrym/snipstore/internal/telemetry/instrumentedpersistence"
	dynamokv "github.com/soletrym/snipstore/persistence/driver/aws/dynamodb"
	"github.com/soletrym/snipstore/persistence/driver/file"
	"github.com/soletrym/snipstore/persistence/driver/memory"
	mongokv "github.com/soletrym/snipstore/persistence/driver/mongo"
	"github.com/soletrym/snipstore/persistence/driver/postgres"
	"github.com/soletrym/snipstore/persistence/kv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultKeyValueStoreDSN is the DSN of the key/value store used when none
	// is configured.
	DefaultKeyValueStoreDSN = "memory:"

	// DefaultKeyspace is the name of the keyspace in which snippets are stored
	// when none is configured.
	DefaultKeyspace = "snippets"

	// DefaultMongoCollection is the collection used by the MongoDB driver when
	// the DSN does not specify one.
	DefaultMongoCollection = "kv"
)

// keyValueStoreDSN is the DSN describing which key/value store to use.
var keyValueStoreDSN = ferrite.
	String("SNIPSTORE_KV_DSN", "the DSN of the key/value store").
	WithDefault(DefaultKeyValueStoreDSN).
	WithConstraint(
		"must be a DSN with a supported scheme (memory, file, postgres, dynamodb or mongodb)",
		func(v string) bool {
			u, err := url.Parse(v)
			return err == nil && isSupportedScheme(u.Scheme)
		},
	).
	Optional(ferrite.WithRegistry(FerriteRegistry))

var keyspace = ferrite.
	String("SNIPSTORE_KEYSPACE", "the name of the keyspace in which snippets are stored").
	WithDefault(DefaultKeyspace).
	Optional(ferrite.WithRegistry(FerriteRegistry))

// Backend is a [kv.Store] along with the functions that manage the lifetime of
// the resources it uses.
type Backend struct {
	Store kv.Store

	// Prepare creates any schema that the store requires. It may be nil.
	Prepare func(context.Context) error

	// Close releases the store's resources. It may be nil.
	Close func() error
}

func isSupportedScheme(s string) bool {
	switch s {
	case "memory", "file", "postgres", "postgresql", "dynamodb", "mongodb", "mongodb+srv":
		return true
	}
	return false
}

// BackendFromDSN returns the key/value store described by the given DSN.
//
// It does not connect to any remote service. Connection errors surface from
// the backend's Prepare function, or from the first operation performed on
// the store.
func BackendFromDSN(ctx context.Context, dsn string) (Backend, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return Backend{}, fmt.Errorf("invalid DSN: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return Backend{
			Store: &memory.KeyValueStore{},
		}, nil

	case "file":
		return fileBackend(u)

	case "postgres", "postgresql":
		return postgresBackend(u)

	case "dynamodb":
		return dynamoBackend(ctx, u)

	case "mongodb", "mongodb+srv":
		return mongoBackend(ctx, u)

	default:
		return Backend{}, fmt.Errorf("unsupported DSN scheme: %q", u.Scheme)
	}
}

func fileBackend(u *url.URL) (Backend, error) {
	dir := u.Path
	if dir == "" {
		dir = u.Opaque
	}

	if dir == "" {
		return Backend{}, fmt.Errorf("file DSN must contain a directory path: %q", u.String())
	}

	return Backend{
		Store: &file.KeyValueStore{Dir: dir},
	}, nil
}

func postgresBackend(u *url.URL) (Backend, error) {
	db, err := sql.Open("pgx", u.String())
	if err != nil {
		return Backend{}, err
	}

	return Backend{
		Store: &postgres.KeyValueStore{DB: db},
		Prepare: func(ctx context.Context) error {
			return postgres.CreateKeyValueStoreSchema(ctx, db)
		},
		Close: db.Close,
	}, nil
}

// dynamoBackend returns a backend for a DSN of the form
// dynamodb://<table>?region=<region>&endpoint=<url>.
func dynamoBackend(ctx context.Context, u *url.URL) (Backend, error) {
	table := u.Host
	if table == "" {
		return Backend{}, fmt.Errorf("dynamodb DSN must contain a table name: %q", u.String())
	}

	var opts []func(*awsconfig.LoadOptions) error

	q := u.Query()

	if region := q.Get("region"); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	if endpoint := q.Get("endpoint"); endpoint != "" {
		opts = append(
			opts,
			awsconfig.WithEndpointResolverWithOptions(
				aws.EndpointResolverWithOptionsFunc(
					func(service, region string, options ...any) (aws.Endpoint, error) {
						return aws.Endpoint{URL: endpoint}, nil
					},
				),
			),
		)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return Backend{}, err
	}

	client := dynamodb.NewFromConfig(cfg)

	return Backend{
		Store: &dynamokv.KeyValueStore{
			Client: client,
			Table:  table,
		},
		Prepare: func(ctx context.Context) error {
			return dynamokv.CreateKeyValueStoreTable(ctx, client, table)
		},
	}, nil
}

// mongoBackend returns a backend for a DSN of the form
// mongodb://<host>/<database>?collection=<name>.
//
// The collection parameter is removed before the URI is passed to the driver.
func mongoBackend(ctx context.Context, u *url.URL) (Backend, error) {
	database := strings.TrimPrefix(u.Path, "/")
	if database == "" {
		return Backend{}, fmt.Errorf("mongodb DSN must contain a database name: %q", u.String())
	}

	q := u.Query()
	collection := q.Get("collection")
	if collection == "" {
		collection = DefaultMongoCollection
	}
	q.Del("collection")

	uri := *u
	uri.RawQuery = q.Encode()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri.String()))
	if err != nil {
		return Backend{}, err
	}

	return Backend{
		Store: &mongokv.KeyValueStore{
			Collection: client.Database(database).Collection(collection),
		},
		Close: func() error {
			return client.Disconnect(context.Background())
		},
	}, nil
}

func (c *Config) finalizePersistence() {
	if c.Persistence.Keyspace == "" {
		c.Persistence.Keyspace = DefaultKeyspace

		if c.UseEnv {
			if name, ok := keyspace.Value(); ok {
				c.Persistence.Keyspace = name
			}
		}
	}

	if c.Persistence.Backend.Store == nil {
		dsn := DefaultKeyValueStoreDSN

		if c.UseEnv {
			if v, ok := keyValueStoreDSN.Value(); ok {
				dsn = v
			}
		}

		b, err := BackendFromDSN(context.Background(), dsn)
		if err != nil {
			panic(fmt.Sprintf("unable to configure the key/value store, check SNIPSTORE_KV_DSN or provide the WithKeyValueStore() option: %s", err))
		}

		c.Persistence.Backend = b
	}

	c.Persistence.Backend.Store = &instrumentedpersistence.KeyValueStore{
		Next:      c.Persistence.Backend.Store,
		Telemetry: c.Telemetry,
	}
}
