package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLClient manages the connection to MySQL.
//
// MySQL commits the open transaction before DROP DATABASE, so the physical
// drop of a catalog database cannot be rolled back together with the
// deletion of its control rows. See DropCommitsImplicitly.
type MySQLClient struct {
	sqlStore
}

// NewMySQLClient creates a new MySQL client
func NewMySQLClient(ctx context.Context, connString string) (*MySQLClient, error) {
	cfg, err := mysql.ParseDSN(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	// timestamp_insert is scanned into time.Time
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// The DSN's database holds the control relations
	own, err := ParseDatabaseName(connString)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to determine catalog database: %w", err)
	}

	return &MySQLClient{sqlStore{db: db, dialect: mysqlDialect, ownSchema: own}}, nil
}

// ParseDatabaseName returns the database named in a MySQL DSN
func ParseDatabaseName(connString string) (string, error) {
	cfg, err := mysql.ParseDSN(connString)
	if err != nil {
		return "", err
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("no database name in connection string")
	}
	return cfg.DBName, nil
}
