package postgres

import (
	"context"
	"database/sql"
)

// CreateKeyValueStoreSchema creates the PostgreSQL schema elements required by
// [KeyValueStore].
//
// It is safe to call on a database that already contains the schema.
func CreateKeyValueStoreSchema(
	ctx context.Context,
	db *sql.DB,
) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // nolint:errcheck

	if _, err := tx.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS snipstore`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(
		ctx,
		`CREATE TABLE IF NOT EXISTS snipstore.kv (
			keyspace TEXT NOT NULL,
			key      BYTEA NOT NULL,
			value    BYTEA NOT NULL,

			PRIMARY KEY (keyspace, key)
		)`,
	); err != nil {
		return err
	}

	return tx.Commit()
}
