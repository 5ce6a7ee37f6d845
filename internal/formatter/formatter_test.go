package formatter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tordrt/metacatalog/internal/executor"
	"github.com/tordrt/metacatalog/internal/schema"
)

func testDescription() *schema.Description {
	return &schema.Description{
		Table: "orders",
		Attributes: []schema.Attribute{
			{Name: "id", DataType: "int", IsPrimaryKey: true},
			{Name: "user_id", DataType: "int", IsForeignKey: true},
			{Name: "note", DataType: "text"},
		},
		Values: []schema.ValueRecord{
			{Values: []schema.Pair{{Name: "id", Value: "1"}, {Name: "note", Value: "'x'"}}},
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"", false},
		{FormatText, false},
		{FormatMarkdown, false},
		{FormatJSON, false},
		{"yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := New(tt.format, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
		})
	}
}

func TestFormatOutcome(t *testing.T) {
	out := &executor.Outcome{
		Success:       true,
		Message:       "Query executed successfully.",
		InternalQuery: "SELECT db_name FROM general_bd_tables",
		Result:        []string{"shop", "blog"},
		Databases:     []string{"shop", "blog"},
	}
	failed := &executor.Outcome{
		Success:      false,
		Message:      "Failed to execute query: failed to execute INSERT_VALUES: boom",
		ErrorDetails: "boom (code 19)",
	}

	tests := []struct {
		name   string
		format string
		out    *executor.Outcome
		want   []string
	}{
		{"text success", FormatText, out, []string{"OK Query executed successfully.", "  QUERY: SELECT db_name", "    shop", "  DATABASES:"}},
		{"text failure", FormatText, failed, []string{"ERROR Failed to execute query", "  DETAILS: boom (code 19)"}},
		{"markdown success", FormatMarkdown, out, []string{"## Success", "```sql", "### Result", "- blog"}},
		{"markdown failure", FormatMarkdown, failed, []string{"## Failure", "**Details:** boom (code 19)"}},
		{"json", FormatJSON, out, []string{`"success": true`, `"internal_query": "SELECT db_name FROM general_bd_tables"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f, err := New(tt.format, &buf)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.FormatOutcome(tt.out); err != nil {
				t.Fatalf("FormatOutcome failed: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestFormatRowsAffected(t *testing.T) {
	var buf bytes.Buffer
	_ = NewTextFormatter(&buf).FormatOutcome(&executor.Outcome{Success: true, Message: "ok", Result: int64(3)})
	if !strings.Contains(buf.String(), "    3\n") {
		t.Errorf("Expected rows affected in output, got %q", buf.String())
	}
}

func TestFormatDescription(t *testing.T) {
	var text bytes.Buffer
	if err := NewTextFormatter(&text).FormatDescription(testDescription()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"TABLE orders", "  id: int PK", "  user_id: int FK", "  note: text\n", "    id=1, note='x'"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("Text output missing %q:\n%s", want, text.String())
		}
	}

	var md bytes.Buffer
	if err := NewMarkdownFormatter(&md).FormatDescription(testDescription()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"## orders", "### Attributes", "- **id:** int, PK", "### Values"} {
		if !strings.Contains(md.String(), want) {
			t.Errorf("Markdown output missing %q:\n%s", want, md.String())
		}
	}

	var js bytes.Buffer
	if err := NewJSONFormatter(&js).FormatDescription(testDescription()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(js.String(), `{"id":"1","note":"'x'"}`) {
		t.Errorf("JSON output should keep attribute order, got:\n%s", js.String())
	}
	var decoded map[string]any
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Errorf("JSON output is not valid: %v", err)
	}
}

func TestFormatListings(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	dbs := []schema.Database{{ID: 2, Name: "blog", CreatedAt: created}, {ID: 1, Name: "shop", CreatedAt: created}}
	tables := []schema.Table{{Name: "orders"}, {Name: "users"}}

	var buf bytes.Buffer
	f := NewTextFormatter(&buf)
	_ = f.FormatDatabases(dbs)
	_ = f.FormatTables("shop", tables)

	want := "blog (created 2024-05-01 12:00:00)\nshop (created 2024-05-01 12:00:00)\nDATABASE shop\n  orders\n  users\n"
	if buf.String() != want {
		t.Errorf("Unexpected text listing:\n%s\nwant:\n%s", buf.String(), want)
	}

	buf.Reset()
	_ = NewJSONFormatter(&buf).FormatTables("shop", tables)
	var decoded struct {
		Database string   `json:"database"`
		Tables   []string `json:"tables"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Database != "shop" || len(decoded.Tables) != 2 || decoded.Tables[1] != "users" {
		t.Errorf("Unexpected JSON listing %+v", decoded)
	}
}

func TestMultiFileFormatter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "catalog")
	snapshot := []schema.DatabaseSnapshot{
		{Database: schema.Database{Name: "shop"}, Tables: []schema.Description{*testDescription()}},
		{Database: schema.Database{Name: "blog"}},
	}

	if err := NewMultiFileFormatter(dir).Format(snapshot); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	overview, err := os.ReadFile(filepath.Join(dir, "_overview.md"))
	if err != nil {
		t.Fatal(err)
	}
	blog := strings.Index(string(overview), "**blog** (0 tables)")
	shop := strings.Index(string(overview), "**shop** (1 tables)")
	if blog < 0 || shop < 0 || blog > shop {
		t.Errorf("Overview should list databases alphabetically:\n%s", overview)
	}

	shopFile, err := os.ReadFile(filepath.Join(dir, "shop.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(shopFile), "## orders") {
		t.Errorf("Database file missing table section:\n%s", shopFile)
	}

	if _, err := os.Stat(filepath.Join(dir, "blog.md")); err != nil {
		t.Errorf("Expected blog.md to exist: %v", err)
	}
}
