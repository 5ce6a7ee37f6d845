package statement

import (
	"regexp"
	"strings"

	"github.com/tordrt/metacatalog/internal/schema"
)

// Operation is the parameterized form of an accepted statement
type Operation struct {
	Kind Kind
	// Target is the database or table name the statement addresses
	Target string
	Query  string
	Args   []any
}

// Read reports whether the operation returns rows instead of modifying them
func (o *Operation) Read() bool {
	return o.Kind.IsRead()
}

const ident = `([a-zA-Z0-9_]+)`

var (
	createDatabasePattern = regexp.MustCompile(`(?is)^CREATE\s+DATABASE\s+` + ident)
	createTablePattern    = regexp.MustCompile(`(?is)^CREATE\s+TABLE\s+` + ident + `\s*\((.+)\)(.*)$`)
	showTablesPattern     = regexp.MustCompile(`(?is)^SHOW\s+TABLES\s+FROM\s+` + ident)
	fromDatabasePattern   = regexp.MustCompile(`(?is)\bFROM\s+` + ident)
	insertPattern         = regexp.MustCompile(`(?is)^INSERT\s+INTO\s+` + ident + `\s*\((.+)\)\s*VALUES\s*\((.+)\)`)
	deletePattern         = regexp.MustCompile(`(?is)^DELETE\s+FROM\s+` + ident + `\s+WHERE\s+(.+)`)
	updatePattern         = regexp.MustCompile(`(?is)^UPDATE\s+` + ident + `\s+SET\s+(.+)\s+WHERE\s+(.+)`)
	alterTablePattern     = regexp.MustCompile(`(?is)^ALTER\s+TABLE\s+` + ident + `\s+ADD\s+` + ident + `\s+` + ident)
	dropDatabasePattern   = regexp.MustCompile(`(?is)^DROP\s+DATABASE\s+` + ident)
)

// Queries against the control relations. Table lookups by name are not
// scoped to a database, matching the catalog's single-namespace table names.
const (
	QueryCreateDatabase = `INSERT INTO general_bd_tables (db_name, timestamp_insert) VALUES (?, CURRENT_TIMESTAMP)`
	QueryShowDatabases  = `SELECT db_name FROM general_bd_tables ORDER BY timestamp_insert DESC, id_bd DESC`
	QueryCreateTable    = `INSERT INTO general_table_tables (db_id, table_name, timestamp_insert) VALUES ((SELECT id_bd FROM general_bd_tables WHERE db_name = ?), ?, CURRENT_TIMESTAMP)`
	QueryShowTables     = `SELECT table_name FROM general_table_tables WHERE db_id = (SELECT id_bd FROM general_bd_tables WHERE db_name = ?) ORDER BY timestamp_insert DESC, table_id DESC`
	QueryInsertValues   = `INSERT INTO general_value_tables (table_id, attribute_values, timestamp_insert) VALUES ((SELECT table_id FROM general_table_tables WHERE table_name = ?), ?, CURRENT_TIMESTAMP)`
	QueryAlterTable     = `INSERT INTO general_attribute_tables (table_id, attribute_name, data_type, is_primary_key, is_foreign_key, timestamp_insert) VALUES ((SELECT table_id FROM general_table_tables WHERE table_name = ?), ?, ?, FALSE, FALSE, CURRENT_TIMESTAMP)`
	QueryDropDatabase   = `DELETE FROM general_bd_tables WHERE db_name = ?`

	tableIDByName = `(SELECT table_id FROM general_table_tables WHERE table_name = ?)`
)

type translator func(q string) (*Operation, error)

var translators = map[Kind]translator{
	KindCreateDatabase: translateCreateDatabase,
	KindShowDatabases:  translateShowDatabases,
	KindCreateTable:    translateCreateTable,
	KindShowTables:     translateShowTables,
	KindAlterTable:     translateAlterTable,
	KindInsertValues:   translateInsertValues,
	KindDeleteValues:   translateDeleteValues,
	KindUpdateValues:   translateUpdateValues,
	KindDropDatabase:   translateDropDatabase,
}

// Translate builds the internal operation for text already classified as kind
func Translate(kind Kind, text string) (*Operation, error) {
	if kind == KindDropTable {
		return nil, &Error{Kind: kind, Err: ErrNotImplemented}
	}

	t, ok := translators[kind]
	if !ok {
		return nil, ErrUnsupportedStatement
	}
	return t(strings.TrimSpace(text))
}

// Parse classifies and translates text in one step
func Parse(text string) (*Operation, error) {
	kind, err := Classify(text)
	if err != nil {
		return nil, err
	}
	return Translate(kind, text)
}

// controlRelations are the catalog's own tables. A database of the same
// name would make the physical drop of the SQLite backend remove one.
var controlRelations = map[string]bool{
	"general_bd_tables":             true,
	"general_table_tables":          true,
	"general_attribute_tables":      true,
	"general_fkey_tables":           true,
	"general_fkey_attribute_tables": true,
	"general_value_tables":          true,
}

func reserved(name string) bool {
	return controlRelations[strings.ToLower(name)]
}

func translateCreateDatabase(q string) (*Operation, error) {
	m := createDatabasePattern.FindStringSubmatch(q)
	if m == nil {
		return nil, invalid(KindCreateDatabase)
	}
	if reserved(m[1]) {
		return nil, &Error{Kind: KindCreateDatabase, Err: ErrReservedName}
	}
	return &Operation{
		Kind:   KindCreateDatabase,
		Target: m[1],
		Query:  QueryCreateDatabase,
		Args:   []any{m[1]},
	}, nil
}

func translateShowDatabases(string) (*Operation, error) {
	return &Operation{
		Kind:  KindShowDatabases,
		Query: QueryShowDatabases,
		Args:  []any{},
	}, nil
}

func translateCreateTable(q string) (*Operation, error) {
	m := createTablePattern.FindStringSubmatch(q)
	if m == nil {
		return nil, invalid(KindCreateTable)
	}

	dbName, err := databaseNameFrom(m[3])
	if err != nil {
		return nil, &Error{Kind: KindCreateTable, Err: err}
	}

	return &Operation{
		Kind:   KindCreateTable,
		Target: m[1],
		Query:  QueryCreateTable,
		Args:   []any{dbName, m[1]},
	}, nil
}

// databaseNameFrom finds the database named by a FROM <db> fragment
func databaseNameFrom(fragment string) (string, error) {
	m := fromDatabasePattern.FindStringSubmatch(fragment)
	if m == nil {
		return "", ErrDatabaseNameMissing
	}
	return m[1], nil
}

func translateShowTables(q string) (*Operation, error) {
	m := showTablesPattern.FindStringSubmatch(q)
	if m == nil {
		if _, err := databaseNameFrom(q); err != nil {
			return nil, &Error{Kind: KindShowTables, Err: err}
		}
		return nil, invalid(KindShowTables)
	}
	return &Operation{
		Kind:   KindShowTables,
		Target: m[1],
		Query:  QueryShowTables,
		Args:   []any{m[1]},
	}, nil
}

func translateInsertValues(q string) (*Operation, error) {
	m := insertPattern.FindStringSubmatch(q)
	if m == nil {
		return nil, invalid(KindInsertValues)
	}

	columns := splitList(m[2])
	values := splitList(m[3])
	if len(columns) != len(values) {
		return nil, invalid(KindInsertValues)
	}

	pairs := make([]schema.Pair, 0, len(columns))
	for i, col := range columns {
		if col == "" {
			return nil, invalid(KindInsertValues)
		}
		pairs = schema.SetPair(pairs, col, values[i])
	}

	encoded, err := schema.EncodePairs(pairs)
	if err != nil {
		return nil, &Error{Kind: KindInsertValues, Err: err}
	}

	return &Operation{
		Kind:   KindInsertValues,
		Target: m[1],
		Query:  QueryInsertValues,
		Args:   []any{m[1], encoded},
	}, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// The predicate and assignment text of DELETE and UPDATE is appended to the
// generated query as-is. This is an injection surface kept for compatibility
// with existing callers; do not extend it to other kinds.

func translateDeleteValues(q string) (*Operation, error) {
	m := deletePattern.FindStringSubmatch(q)
	if m == nil {
		return nil, invalid(KindDeleteValues)
	}
	return &Operation{
		Kind:   KindDeleteValues,
		Target: m[1],
		Query:  "DELETE FROM general_value_tables WHERE table_id = " + tableIDByName + " AND " + m[2],
		Args:   []any{m[1]},
	}, nil
}

func translateUpdateValues(q string) (*Operation, error) {
	m := updatePattern.FindStringSubmatch(q)
	if m == nil {
		return nil, invalid(KindUpdateValues)
	}
	return &Operation{
		Kind:   KindUpdateValues,
		Target: m[1],
		Query:  "UPDATE general_value_tables SET " + m[2] + " WHERE table_id = " + tableIDByName + " AND " + m[3],
		Args:   []any{m[1]},
	}, nil
}

func translateAlterTable(q string) (*Operation, error) {
	m := alterTablePattern.FindStringSubmatch(q)
	if m == nil {
		return nil, invalid(KindAlterTable)
	}
	return &Operation{
		Kind:   KindAlterTable,
		Target: m[1],
		Query:  QueryAlterTable,
		Args:   []any{m[1], m[2], m[3]},
	}, nil
}

func translateDropDatabase(q string) (*Operation, error) {
	m := dropDatabasePattern.FindStringSubmatch(q)
	if m == nil {
		return nil, invalid(KindDropDatabase)
	}
	if reserved(m[1]) {
		return nil, &Error{Kind: KindDropDatabase, Err: ErrReservedName}
	}
	return &Operation{
		Kind:   KindDropDatabase,
		Target: m[1],
		Query:  QueryDropDatabase,
		Args:   []any{m[1]},
	}, nil
}
