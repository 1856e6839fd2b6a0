package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/soletrym/snipstore/persistence/kv"
)

// KeyValueStore is an implementation of [kv.Store] that stores keyspaces in a
// PostgreSQL database.
type KeyValueStore struct {
	DB *sql.DB
}

// Open returns the keyspace with the given name.
func (s *KeyValueStore) Open(ctx context.Context, name string) (kv.Keyspace, error) {
	return &keyspace{
		Name: name,
		DB:   s.DB,
	}, ctx.Err()
}

type keyspace struct {
	Name string
	DB   *sql.DB
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	row := ks.DB.QueryRowContext(
		ctx,
		`SELECT
			value
		FROM snipstore.kv
		WHERE keyspace = $1
		AND key = $2`,
		ks.Name,
		k,
	)

	var v []byte
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if v == nil {
		v = []byte{}
	}

	return v, true, nil
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	row := ks.DB.QueryRowContext(
		ctx,
		`SELECT
			1
		FROM snipstore.kv
		WHERE keyspace = $1
		AND key = $2`,
		ks.Name,
		k,
	)

	var n int
	if err := row.Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte) error {
	if v == nil {
		v = []byte{}
	}

	_, err := ks.DB.ExecContext(
		ctx,
		`INSERT INTO snipstore.kv AS o (
			keyspace,
			key,
			value
		) VALUES (
			$1, $2, $3
		) ON CONFLICT (keyspace, key) DO UPDATE SET
			value = $3
		`,
		ks.Name,
		k,
		v,
	)

	return err
}

func (ks *keyspace) Delete(ctx context.Context, k []byte) error {
	_, err := ks.DB.ExecContext(
		ctx,
		`DELETE FROM snipstore.kv
		WHERE keyspace = $1
		AND key = $2`,
		ks.Name,
		k,
	)

	return err
}

func (ks *keyspace) Range(
	ctx context.Context,
	fn kv.RangeFunc,
) error {
	rows, err := ks.DB.QueryContext(
		ctx,
		`SELECT
			key,
			value
		FROM snipstore.kv
		WHERE keyspace = $1`,
		ks.Name,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			k []byte
			v []byte
		)
		if err = rows.Scan(&k, &v); err != nil {
			return err
		}

		if v == nil {
			v = []byte{}
		}

		ok, err := fn(ctx, k, v)
		if !ok || err != nil {
			return err
		}
	}

	return rows.Err()
}

func (ks *keyspace) Close() error {
	return nil
}
