package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tordrt/metacatalog/internal/executor"
	"github.com/tordrt/metacatalog/internal/schema"
)

// MarkdownFormatter formats output as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// FormatOutcome writes the outcome of one statement
func (f *MarkdownFormatter) FormatOutcome(out *executor.Outcome) error {
	status := "Success"
	if !out.Success {
		status = "Failure"
	}
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n%s\n\n", status, out.Message)

	if out.InternalQuery != "" {
		_, _ = fmt.Fprintln(f.writer, "### Query")
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintf(f.writer, "```sql\n%s\n```\n\n", out.InternalQuery)
	}

	if lines := resultLines(out.Result); len(lines) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Result")
		_, _ = fmt.Fprintln(f.writer)
		for _, line := range lines {
			_, _ = fmt.Fprintf(f.writer, "- %s\n", line)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(out.Databases) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Databases")
		_, _ = fmt.Fprintln(f.writer)
		for _, name := range out.Databases {
			_, _ = fmt.Fprintf(f.writer, "- %s\n", name)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if out.ErrorDetails != "" {
		_, _ = fmt.Fprintf(f.writer, "**Details:** %s\n", out.ErrorDetails)
	}
	return nil
}

// FormatDatabases writes the databases as a bullet list
func (f *MarkdownFormatter) FormatDatabases(dbs []schema.Database) error {
	_, _ = fmt.Fprintln(f.writer, "# Databases")
	_, _ = fmt.Fprintln(f.writer)
	for _, d := range dbs {
		_, _ = fmt.Fprintf(f.writer, "- **%s** (created %s)\n", d.Name, d.CreatedAt.Format(time.DateTime))
	}
	return nil
}

// FormatTables writes the tables of dbName as a bullet list
func (f *MarkdownFormatter) FormatTables(dbName string, tables []schema.Table) error {
	_, _ = fmt.Fprintf(f.writer, "# %s\n\n", dbName)
	_, _ = fmt.Fprintln(f.writer, "## Tables")
	_, _ = fmt.Fprintln(f.writer)
	for _, t := range tables {
		_, _ = fmt.Fprintf(f.writer, "- %s\n", t.Name)
	}
	return nil
}

// FormatDescription writes a table's attributes and values
func (f *MarkdownFormatter) FormatDescription(d *schema.Description) error {
	return f.formatDescription(f.writer, d, "##")
}

func (f *MarkdownFormatter) formatDescription(w io.Writer, d *schema.Description, heading string) error {
	_, _ = fmt.Fprintf(w, "%s %s\n\n", heading, d.Table)

	_, _ = fmt.Fprintf(w, "%s# Attributes\n\n", heading)
	for _, a := range d.Attributes {
		if flags := attributeFlags(a); flags != "" {
			_, _ = fmt.Fprintf(w, "- **%s:** %s, %s\n", a.Name, a.DataType, flags)
		} else {
			_, _ = fmt.Fprintf(w, "- **%s:** %s\n", a.Name, a.DataType)
		}
	}
	_, _ = fmt.Fprintln(w)

	if len(d.Values) > 0 {
		_, _ = fmt.Fprintf(w, "%s# Values\n\n", heading)
		for _, v := range d.Values {
			_, _ = fmt.Fprintf(w, "- %s\n", escapeMarkdown(pairsString(v.Values)))
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

var markdownEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
