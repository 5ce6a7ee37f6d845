// Package formatter renders execution outcomes and catalog listings for the
// command line.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/metacatalog/internal/executor"
	"github.com/tordrt/metacatalog/internal/schema"
)

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Formatter writes outcomes and listings in one output format
type Formatter interface {
	FormatOutcome(out *executor.Outcome) error
	FormatDatabases(dbs []schema.Database) error
	FormatTables(dbName string, tables []schema.Table) error
	FormatDescription(d *schema.Description) error
}

// New returns the formatter for format, writing to w
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatText, "":
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	case FormatJSON:
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (must be text, markdown, or json)", format)
	}
}

// resultLines flattens an outcome's result into printable lines
func resultLines(result any) []string {
	switch r := result.(type) {
	case nil:
		return nil
	case []string:
		return r
	case string:
		return strings.Split(r, "\n")
	default:
		return []string{fmt.Sprint(r)}
	}
}

func pairsString(pairs []schema.Pair) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.Name + "=" + p.Value
	}
	return strings.Join(parts, ", ")
}

func attributeFlags(a schema.Attribute) string {
	var flags []string
	if a.IsPrimaryKey {
		flags = append(flags, "PK")
	}
	if a.IsForeignKey {
		flags = append(flags, "FK")
	}
	return strings.Join(flags, ", ")
}
