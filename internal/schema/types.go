package schema

import "time"

// Database is a row of general_bd_tables
type Database struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Table is a row of general_table_tables
type Table struct {
	ID         int64
	DatabaseID int64
	Name       string
	CreatedAt  time.Time
}

// Attribute is a row of general_attribute_tables
type Attribute struct {
	ID           int64
	TableID      int64
	Name         string
	DataType     string
	IsPrimaryKey bool
	IsForeignKey bool
	CreatedAt    time.Time
}

// ForeignKey is a row of general_fkey_tables
type ForeignKey struct {
	ConstraintID  int64
	SourceTableID int64
	TargetTableID int64
}

// ValueRecord is a row of general_value_tables
type ValueRecord struct {
	ID        int64
	TableID   int64
	Values    []Pair
	CreatedAt time.Time
}

// Description is what describe reports for one table: its declared
// attributes and the value records stored against it
type Description struct {
	Table      string
	Attributes []Attribute
	Values     []ValueRecord
}

// DatabaseSnapshot is one catalog database together with the description
// of every table registered under it
type DatabaseSnapshot struct {
	Database
	Tables []Description
}
