// Package statement classifies raw catalog statements and translates them
// into parameterized operations against the control relations.
package statement

// Kind identifies one of the recognized statement shapes
type Kind int

const (
	KindUnknown Kind = iota
	KindCreateDatabase
	KindShowDatabases
	KindCreateTable
	KindShowTables
	KindAlterTable
	KindDropTable
	KindInsertValues
	KindDeleteValues
	KindUpdateValues
	KindDropDatabase
)

var kindNames = map[Kind]string{
	KindUnknown:        "UNKNOWN",
	KindCreateDatabase: "CREATE_DATABASE",
	KindShowDatabases:  "SHOW_DATABASES",
	KindCreateTable:    "CREATE_TABLE",
	KindShowTables:     "SHOW_TABLES",
	KindAlterTable:     "ALTER_TABLE",
	KindDropTable:      "DROP_TABLE",
	KindInsertValues:   "INSERT_VALUES",
	KindDeleteValues:   "DELETE_VALUES",
	KindUpdateValues:   "UPDATE_VALUES",
	KindDropDatabase:   "DROP_DATABASE",
}

// String returns the upper-snake name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// IsRead reports whether statements of this kind only read the catalog
func (k Kind) IsRead() bool {
	return k == KindShowDatabases || k == KindShowTables
}
