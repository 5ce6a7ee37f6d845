package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sqlStore implements the store primitives on top of database/sql. It backs
// both the SQLite and the MySQL client.
type sqlStore struct {
	db      *sql.DB
	dialect *dialect
	// ownSchema is the schema holding the control relations, if the
	// backend has one
	ownSchema string
}

// Exec runs a single statement outside of any transaction
func (s *sqlStore) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execSQL(ctx, s.db, query, args)
}

// QueryStrings runs a query returning a single text column
func (s *sqlStore) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	return queryStrings(ctx, s, query, args...)
}

// InTx runs fn inside one transaction. The transaction is committed when fn
// returns nil and rolled back on error or panic.
func (s *sqlStore) InTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
			}
		}
	}()

	if err = fn(ctx, sqlTx{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DropSchemaQuery returns the statement that physically drops the object
// backing the named database
func (s *sqlStore) DropSchemaQuery(name string) string {
	return s.dialect.dropSchema(name)
}

// ProtectedSchema reports whether name must not be dropped: it is a control
// relation, a backend system schema or the schema holding the catalog
func (s *sqlStore) ProtectedSchema(name string) bool {
	return s.dialect.protected(name, s.ownSchema)
}

// DropCommitsImplicitly reports whether the physical drop ends the open
// transaction before it runs
func (s *sqlStore) DropCommitsImplicitly() bool {
	return s.dialect.implicitCommit
}

// Bootstrap creates the control relations if they do not exist yet
func (s *sqlStore) Bootstrap(ctx context.Context) error {
	for _, stmt := range s.dialect.ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create control relations: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *sqlStore) GetDB() *sql.DB {
	return s.db
}

func (s *sqlStore) query(ctx context.Context, q string, args []any, each func(rowScanner) error) error {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execSQL(ctx context.Context, e sqlExecer, query string, args []any) (int64, error) {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execSQL(ctx, t.tx, query, args)
}
