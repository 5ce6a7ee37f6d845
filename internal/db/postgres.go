package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresClient manages the connection pool to PostgreSQL
type PostgresClient struct {
	pool *pgxpool.Pool
	// ownSchema is the schema the control relations are created in
	ownSchema string
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var own string
	if err := pool.QueryRow(ctx, "SELECT current_schema()").Scan(&own); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to determine current schema: %w", err)
	}

	return &PostgresClient{pool: pool, ownSchema: own}, nil
}

// Exec runs a single statement outside of any transaction
func (c *PostgresClient) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := c.pool.Exec(ctx, rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// QueryStrings runs a query returning a single text column
func (c *PostgresClient) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	return queryStrings(ctx, c, query, args...)
}

// InTx runs fn inside one transaction, committing when it returns nil
func (c *PostgresClient) InTx(ctx context.Context, fn TxFunc) error {
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		return fn(ctx, pgxTx{tx: tx})
	})
}

// DropSchemaQuery returns the statement that drops the schema backing the named database
func (c *PostgresClient) DropSchemaQuery(name string) string {
	return postgresDialect.dropSchema(name)
}

// ProtectedSchema reports whether name must not be dropped: it is a control
// relation, a system schema or the schema holding the catalog
func (c *PostgresClient) ProtectedSchema(name string) bool {
	return postgresDialect.protected(name, c.ownSchema)
}

// DropCommitsImplicitly is false: DROP SCHEMA is transactional
func (c *PostgresClient) DropCommitsImplicitly() bool {
	return postgresDialect.implicitCommit
}

// Bootstrap creates the control relations if they do not exist yet
func (c *PostgresClient) Bootstrap(ctx context.Context) error {
	for _, stmt := range postgresDialect.ddl {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create control relations: %w", err)
		}
	}
	return nil
}

// Close closes every connection in the pool
func (c *PostgresClient) Close() error {
	c.pool.Close()
	return nil
}

func (c *PostgresClient) query(ctx context.Context, q string, args []any, each func(rowScanner) error) error {
	rows, err := c.pool.Query(ctx, rebind(q), args...)
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

type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// rebind rewrites ? placeholders into PostgreSQL's $n form. Question marks
// inside quoted literals or identifiers are left alone.
func rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
