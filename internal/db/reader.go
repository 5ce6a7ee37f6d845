package db

import (
	"context"
	"fmt"

	"github.com/tordrt/metacatalog/internal/schema"
)

const (
	selectDatabases = `
		SELECT id_bd, db_name, timestamp_insert
		FROM general_bd_tables
		ORDER BY timestamp_insert DESC, id_bd DESC
	`

	selectTables = `
		SELECT t.table_id, t.db_id, t.table_name, t.timestamp_insert
		FROM general_table_tables t
		JOIN general_bd_tables d ON d.id_bd = t.db_id
		WHERE d.db_name = ?
		ORDER BY t.timestamp_insert DESC, t.table_id DESC
	`

	selectAttributes = `
		SELECT a.attribute_id, a.table_id, a.attribute_name, a.data_type,
			a.is_primary_key, a.is_foreign_key, a.timestamp_insert
		FROM general_attribute_tables a
		JOIN general_table_tables t ON t.table_id = a.table_id
		WHERE t.table_name = ?
		ORDER BY a.attribute_id
	`

	selectValues = `
		SELECT v.value_id, v.table_id, v.attribute_values, v.timestamp_insert
		FROM general_value_tables v
		JOIN general_table_tables t ON t.table_id = v.table_id
		WHERE t.table_name = ?
		ORDER BY v.value_id
	`
)

func listDatabases(ctx context.Context, q querier) ([]schema.Database, error) {
	var out []schema.Database
	err := q.query(ctx, selectDatabases, nil, func(row rowScanner) error {
		var d schema.Database
		if err := row.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return out, nil
}

func listTables(ctx context.Context, q querier, dbName string) ([]schema.Table, error) {
	var out []schema.Table
	err := q.query(ctx, selectTables, []any{dbName}, func(row rowScanner) error {
		var t schema.Table
		if err := row.Scan(&t.ID, &t.DatabaseID, &t.Name, &t.CreatedAt); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", dbName, err)
	}
	return out, nil
}

func listAttributes(ctx context.Context, q querier, tableName string) ([]schema.Attribute, error) {
	var out []schema.Attribute
	err := q.query(ctx, selectAttributes, []any{tableName}, func(row rowScanner) error {
		var a schema.Attribute
		if err := row.Scan(&a.ID, &a.TableID, &a.Name, &a.DataType, &a.IsPrimaryKey, &a.IsForeignKey, &a.CreatedAt); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes of %s: %w", tableName, err)
	}
	return out, nil
}

func listValues(ctx context.Context, q querier, tableName string) ([]schema.ValueRecord, error) {
	var out []schema.ValueRecord
	err := q.query(ctx, selectValues, []any{tableName}, func(row rowScanner) error {
		var v schema.ValueRecord
		var encoded string
		if err := row.Scan(&v.ID, &v.TableID, &encoded, &v.CreatedAt); err != nil {
			return err
		}
		pairs, err := schema.DecodePairs(encoded)
		if err != nil {
			return err
		}
		v.Values = pairs
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list values of %s: %w", tableName, err)
	}
	return out, nil
}

// Databases lists every catalog database, newest first
func (s *sqlStore) Databases(ctx context.Context) ([]schema.Database, error) {
	return listDatabases(ctx, s)
}

// Tables lists the tables of the named database, newest first
func (s *sqlStore) Tables(ctx context.Context, dbName string) ([]schema.Table, error) {
	return listTables(ctx, s, dbName)
}

// Attributes lists the attributes declared on the named table
func (s *sqlStore) Attributes(ctx context.Context, tableName string) ([]schema.Attribute, error) {
	return listAttributes(ctx, s, tableName)
}

// Values lists the value records stored for the named table
func (s *sqlStore) Values(ctx context.Context, tableName string) ([]schema.ValueRecord, error) {
	return listValues(ctx, s, tableName)
}

// Databases lists every catalog database, newest first
func (c *PostgresClient) Databases(ctx context.Context) ([]schema.Database, error) {
	return listDatabases(ctx, c)
}

// Tables lists the tables of the named database, newest first
func (c *PostgresClient) Tables(ctx context.Context, dbName string) ([]schema.Table, error) {
	return listTables(ctx, c, dbName)
}

// Attributes lists the attributes declared on the named table
func (c *PostgresClient) Attributes(ctx context.Context, tableName string) ([]schema.Attribute, error) {
	return listAttributes(ctx, c, tableName)
}

// Values lists the value records stored for the named table
func (c *PostgresClient) Values(ctx context.Context, tableName string) ([]schema.ValueRecord, error) {
	return listValues(ctx, c, tableName)
}
