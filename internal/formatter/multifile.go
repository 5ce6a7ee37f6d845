package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tordrt/metacatalog/internal/schema"
)

// MultiFileFormatter writes a catalog snapshot to a directory: an overview
// plus one markdown file per database
type MultiFileFormatter struct {
	OutputDir string
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string) *MultiFileFormatter {
	return &MultiFileFormatter{OutputDir: outputDir}
}

// Format writes the snapshot to multiple files
func (f *MultiFileFormatter) Format(snapshot []schema.DatabaseSnapshot) error {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(snapshot); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for i := range snapshot {
		if err := f.writeDatabaseFile(&snapshot[i]); err != nil {
			return fmt.Errorf("failed to write database file for %s: %w", snapshot[i].Name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeOverview(snapshot []schema.DatabaseSnapshot) error {
	file, err := os.Create(filepath.Join(f.OutputDir, "_overview.md"))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintf(file, "# Catalog Overview\n\n")
	_, _ = fmt.Fprintf(file, "Each database has a corresponding file: `<db_name>.md`\n\n")
	_, _ = fmt.Fprintf(file, "## Databases\n\n")

	sorted := make([]schema.DatabaseSnapshot, len(snapshot))
	copy(sorted, snapshot)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	for _, d := range sorted {
		_, _ = fmt.Fprintf(file, "- **%s** (%d tables)\n", d.Name, len(d.Tables))
	}

	return nil
}

func (f *MultiFileFormatter) writeDatabaseFile(d *schema.DatabaseSnapshot) error {
	file, err := os.Create(filepath.Join(f.OutputDir, filepath.Base(d.Name)+".md"))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintf(file, "# %s\n\n", d.Name)

	md := NewMarkdownFormatter(file)
	for i := range d.Tables {
		if err := md.formatDescription(file, &d.Tables[i], "##"); err != nil {
			return err
		}
	}

	return nil
}
