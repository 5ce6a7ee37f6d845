// Package db provides the Catalog Store: one client per supported backend,
// all exposing the same statement, transaction and read primitives over the
// control relations.
package db

import (
	"context"
)

// Execer runs a single statement and reports the number of affected rows
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
}

// TxFunc is run inside a transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, tx Execer) error

// rowScanner is satisfied by both *sql.Rows and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// querier iterates the rows of a query, calling each once per row
type querier interface {
	query(ctx context.Context, q string, args []any, each func(rowScanner) error) error
}

// queryStrings collects a single text column from every row
func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	out := []string{}
	err := q.query(ctx, query, args, func(row rowScanner) error {
		var s string
		if err := row.Scan(&s); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
