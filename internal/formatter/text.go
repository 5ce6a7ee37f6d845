package formatter

import (
	"fmt"
	"io"
	"time"

	"github.com/tordrt/metacatalog/internal/executor"
	"github.com/tordrt/metacatalog/internal/schema"
)

// TextFormatter formats output as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// FormatOutcome writes the outcome of one statement
func (f *TextFormatter) FormatOutcome(out *executor.Outcome) error {
	status := "OK"
	if !out.Success {
		status = "ERROR"
	}
	_, _ = fmt.Fprintf(f.writer, "%s %s\n", status, out.Message)

	if out.InternalQuery != "" {
		_, _ = fmt.Fprintf(f.writer, "  QUERY: %s\n", out.InternalQuery)
	}

	if lines := resultLines(out.Result); len(lines) > 0 {
		_, _ = fmt.Fprintln(f.writer, "  RESULT:")
		for _, line := range lines {
			_, _ = fmt.Fprintf(f.writer, "    %s\n", line)
		}
	}

	if len(out.Databases) > 0 {
		_, _ = fmt.Fprintln(f.writer, "  DATABASES:")
		for _, name := range out.Databases {
			_, _ = fmt.Fprintf(f.writer, "    %s\n", name)
		}
	}

	if out.ErrorDetails != "" {
		_, _ = fmt.Fprintf(f.writer, "  DETAILS: %s\n", out.ErrorDetails)
	}
	return nil
}

// FormatDatabases writes one line per database
func (f *TextFormatter) FormatDatabases(dbs []schema.Database) error {
	for _, d := range dbs {
		_, _ = fmt.Fprintf(f.writer, "%s (created %s)\n", d.Name, d.CreatedAt.Format(time.DateTime))
	}
	return nil
}

// FormatTables writes one line per table of dbName
func (f *TextFormatter) FormatTables(dbName string, tables []schema.Table) error {
	_, _ = fmt.Fprintf(f.writer, "DATABASE %s\n", dbName)
	for _, t := range tables {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", t.Name)
	}
	return nil
}

// FormatDescription writes a table's attributes followed by its values
func (f *TextFormatter) FormatDescription(d *schema.Description) error {
	_, _ = fmt.Fprintf(f.writer, "TABLE %s\n", d.Table)
	for _, a := range d.Attributes {
		line := a.Name + ": " + a.DataType
		if flags := attributeFlags(a); flags != "" {
			line += " " + flags
		}
		_, _ = fmt.Fprintf(f.writer, "  %s\n", line)
	}

	if len(d.Values) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  VALUES:")
		for _, v := range d.Values {
			_, _ = fmt.Fprintf(f.writer, "    %s\n", pairsString(v.Values))
		}
	}
	return nil
}
