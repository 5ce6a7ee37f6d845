package db

import (
	"fmt"
	"strings"
)

// dialect captures what differs between backends: the DDL of the control
// relations, the physical drop of a database's backing object and the
// objects that drop must never reach
type dialect struct {
	name       string
	ddl        []string
	dropSchema func(name string) string
	// system reports names owned by the backend itself
	system func(name string) bool
	// implicitCommit is set when dropSchema ends the open transaction
	implicitCommit bool
}

// controlRelations are the catalog's own tables
var controlRelations = map[string]bool{
	"general_bd_tables":             true,
	"general_table_tables":          true,
	"general_attribute_tables":      true,
	"general_fkey_tables":           true,
	"general_fkey_attribute_tables": true,
	"general_value_tables":          true,
}

// protected reports whether dropping the object backing name would hit the
// catalog or the backend. own is the schema holding the control relations.
func (d *dialect) protected(name, own string) bool {
	lower := strings.ToLower(name)
	if controlRelations[lower] {
		return true
	}
	if own != "" && lower == strings.ToLower(own) {
		return true
	}
	return d.system(lower)
}

var sqliteDialect = &dialect{
	name: "sqlite",
	ddl: []string{
		`CREATE TABLE IF NOT EXISTS general_bd_tables (
			id_bd INTEGER PRIMARY KEY AUTOINCREMENT,
			db_name TEXT NOT NULL UNIQUE,
			timestamp_insert TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS general_table_tables (
			table_id INTEGER PRIMARY KEY AUTOINCREMENT,
			db_id INTEGER NOT NULL REFERENCES general_bd_tables(id_bd) ON DELETE CASCADE,
			table_name TEXT NOT NULL UNIQUE,
			timestamp_insert TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS general_attribute_tables (
			attribute_id INTEGER PRIMARY KEY AUTOINCREMENT,
			table_id INTEGER NOT NULL REFERENCES general_table_tables(table_id) ON DELETE CASCADE,
			attribute_name TEXT NOT NULL,
			data_type TEXT NOT NULL,
			is_primary_key BOOLEAN NOT NULL DEFAULT FALSE,
			is_foreign_key BOOLEAN NOT NULL DEFAULT FALSE,
			timestamp_insert TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS general_fkey_tables (
			constraint_id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_table_id INTEGER NOT NULL REFERENCES general_table_tables(table_id),
			target_table_id INTEGER NOT NULL REFERENCES general_table_tables(table_id)
		)`,
		`CREATE TABLE IF NOT EXISTS general_fkey_attribute_tables (
			constraint_id INTEGER NOT NULL REFERENCES general_fkey_tables(constraint_id),
			source_attribute_id INTEGER REFERENCES general_attribute_tables(attribute_id),
			target_attribute_id INTEGER REFERENCES general_attribute_tables(attribute_id)
		)`,
		`CREATE TABLE IF NOT EXISTS general_value_tables (
			value_id INTEGER PRIMARY KEY AUTOINCREMENT,
			table_id INTEGER NOT NULL REFERENCES general_table_tables(table_id) ON DELETE CASCADE,
			attribute_values TEXT NOT NULL,
			timestamp_insert TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	// SQLite has no droppable schema namespace; a database is backed by a
	// same-named table in the main schema.
	dropSchema: func(name string) string {
		return fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, name)
	},
	system: func(name string) bool {
		return strings.HasPrefix(name, "sqlite_")
	},
}

var mysqlDialect = &dialect{
	name: "mysql",
	ddl: []string{
		`CREATE TABLE IF NOT EXISTS general_bd_tables (
			id_bd INT AUTO_INCREMENT PRIMARY KEY,
			db_name VARCHAR(255) NOT NULL UNIQUE,
			timestamp_insert DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS general_table_tables (
			table_id INT AUTO_INCREMENT PRIMARY KEY,
			db_id INT NOT NULL,
			table_name VARCHAR(255) NOT NULL UNIQUE,
			timestamp_insert DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (db_id) REFERENCES general_bd_tables(id_bd) ON DELETE CASCADE
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS general_attribute_tables (
			attribute_id INT AUTO_INCREMENT PRIMARY KEY,
			table_id INT NOT NULL,
			attribute_name VARCHAR(255) NOT NULL,
			data_type VARCHAR(255) NOT NULL,
			is_primary_key BOOLEAN NOT NULL DEFAULT FALSE,
			is_foreign_key BOOLEAN NOT NULL DEFAULT FALSE,
			timestamp_insert DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (table_id) REFERENCES general_table_tables(table_id) ON DELETE CASCADE
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS general_fkey_tables (
			constraint_id INT AUTO_INCREMENT PRIMARY KEY,
			source_table_id INT NOT NULL,
			target_table_id INT NOT NULL,
			FOREIGN KEY (source_table_id) REFERENCES general_table_tables(table_id),
			FOREIGN KEY (target_table_id) REFERENCES general_table_tables(table_id)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS general_fkey_attribute_tables (
			constraint_id INT NOT NULL,
			source_attribute_id INT NULL,
			target_attribute_id INT NULL,
			FOREIGN KEY (constraint_id) REFERENCES general_fkey_tables(constraint_id),
			FOREIGN KEY (source_attribute_id) REFERENCES general_attribute_tables(attribute_id),
			FOREIGN KEY (target_attribute_id) REFERENCES general_attribute_tables(attribute_id)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS general_value_tables (
			value_id INT AUTO_INCREMENT PRIMARY KEY,
			table_id INT NOT NULL,
			attribute_values TEXT NOT NULL,
			timestamp_insert DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (table_id) REFERENCES general_table_tables(table_id) ON DELETE CASCADE
		) ENGINE=InnoDB`,
	},
	// DROP DATABASE commits the surrounding transaction implicitly on MySQL.
	dropSchema: func(name string) string {
		return fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", name)
	},
	system: func(name string) bool {
		switch name {
		case "mysql", "information_schema", "performance_schema", "sys":
			return true
		}
		return false
	},
	implicitCommit: true,
}

var postgresDialect = &dialect{
	name: "postgres",
	ddl: []string{
		`CREATE TABLE IF NOT EXISTS general_bd_tables (
			id_bd BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			db_name TEXT NOT NULL UNIQUE,
			timestamp_insert TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS general_table_tables (
			table_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			db_id BIGINT NOT NULL REFERENCES general_bd_tables(id_bd) ON DELETE CASCADE,
			table_name TEXT NOT NULL UNIQUE,
			timestamp_insert TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS general_attribute_tables (
			attribute_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			table_id BIGINT NOT NULL REFERENCES general_table_tables(table_id) ON DELETE CASCADE,
			attribute_name TEXT NOT NULL,
			data_type TEXT NOT NULL,
			is_primary_key BOOLEAN NOT NULL DEFAULT FALSE,
			is_foreign_key BOOLEAN NOT NULL DEFAULT FALSE,
			timestamp_insert TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS general_fkey_tables (
			constraint_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			source_table_id BIGINT NOT NULL REFERENCES general_table_tables(table_id),
			target_table_id BIGINT NOT NULL REFERENCES general_table_tables(table_id)
		)`,
		`CREATE TABLE IF NOT EXISTS general_fkey_attribute_tables (
			constraint_id BIGINT NOT NULL REFERENCES general_fkey_tables(constraint_id),
			source_attribute_id BIGINT REFERENCES general_attribute_tables(attribute_id),
			target_attribute_id BIGINT REFERENCES general_attribute_tables(attribute_id)
		)`,
		`CREATE TABLE IF NOT EXISTS general_value_tables (
			value_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			table_id BIGINT NOT NULL REFERENCES general_table_tables(table_id) ON DELETE CASCADE,
			attribute_values TEXT NOT NULL,
			timestamp_insert TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	dropSchema: func(name string) string {
		return fmt.Sprintf(`DROP SCHEMA IF EXISTS "%s" CASCADE`, name)
	},
	system: func(name string) bool {
		return name == "public" || name == "information_schema" || strings.HasPrefix(name, "pg_")
	},
}
