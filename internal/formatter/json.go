package formatter

import (
	"encoding/json"
	"io"

	"github.com/tordrt/metacatalog/internal/executor"
	"github.com/tordrt/metacatalog/internal/schema"
)

// JSONFormatter writes output as indented JSON documents
type JSONFormatter struct {
	enc *json.Encoder
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONFormatter{enc: enc}
}

type jsonDatabase struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type jsonAttribute struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	IsForeignKey bool   `json:"is_foreign_key"`
}

type jsonDescription struct {
	Table      string            `json:"table"`
	Attributes []jsonAttribute   `json:"attributes"`
	Values     []json.RawMessage `json:"values"`
}

// FormatOutcome writes the envelope exactly as the HTTP surface returns it
func (f *JSONFormatter) FormatOutcome(out *executor.Outcome) error {
	return f.enc.Encode(out)
}

// FormatDatabases writes {"databases": [...]}
func (f *JSONFormatter) FormatDatabases(dbs []schema.Database) error {
	out := make([]jsonDatabase, len(dbs))
	for i, d := range dbs {
		out[i] = jsonDatabase{Name: d.Name, CreatedAt: d.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")}
	}
	return f.enc.Encode(map[string]any{"databases": out})
}

// FormatTables writes {"database": ..., "tables": [...]}
func (f *JSONFormatter) FormatTables(dbName string, tables []schema.Table) error {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return f.enc.Encode(map[string]any{"database": dbName, "tables": names})
}

// FormatDescription writes the attributes and the value records of a table.
// Value records keep their attribute order.
func (f *JSONFormatter) FormatDescription(d *schema.Description) error {
	out := jsonDescription{
		Table:      d.Table,
		Attributes: make([]jsonAttribute, len(d.Attributes)),
		Values:     make([]json.RawMessage, len(d.Values)),
	}
	for i, a := range d.Attributes {
		out.Attributes[i] = jsonAttribute{
			Name:         a.Name,
			DataType:     a.DataType,
			IsPrimaryKey: a.IsPrimaryKey,
			IsForeignKey: a.IsForeignKey,
		}
	}
	for i, v := range d.Values {
		encoded, err := schema.EncodePairs(v.Values)
		if err != nil {
			return err
		}
		out.Values[i] = json.RawMessage(encoded)
	}
	return f.enc.Encode(out)
}
