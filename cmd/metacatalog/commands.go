package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tordrt/metacatalog"
	"github.com/tordrt/metacatalog/internal/formatter"
	"github.com/tordrt/metacatalog/internal/logging"
	"github.com/tordrt/metacatalog/internal/server"
	"github.com/tordrt/metacatalog/internal/shell"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the control relations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog(cat)

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Control relations are ready.")
			return nil
		},
	}
}

func newExecCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "exec <statement>",
		Short: "Execute one catalog statement",
		Example: `  metacatalog --sqlite catalog.db exec "CREATE DATABASE shop"
  metacatalog --sqlite catalog.db exec "INSERT INTO orders (id, note) VALUES (1, 'x')" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			cat, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog(cat)

			out, execErr := cat.Execute(cmd.Context(), strings.Join(args, " "))
			if execErr != nil {
				out = metacatalog.ErrorOutcome(execErr)
			}
			if err := f.FormatOutcome(out); err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return execErr
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatter.FormatText, "Output format: text, markdown, or json")
	return cmd
}

func newDatabasesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "databases",
		Short: "List catalog databases, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			cat, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog(cat)

			dbs, err := cat.Databases(cmd.Context())
			if err != nil {
				return err
			}
			return f.FormatDatabases(dbs)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatter.FormatText, "Output format: text, markdown, or json")
	return cmd
}

func newTablesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tables <database>",
		Short: "List the tables of a catalog database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			cat, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog(cat)

			tables, err := cat.Tables(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return f.FormatTables(args[0], tables)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatter.FormatText, "Output format: text, markdown, or json")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the attributes and values of a catalog table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			cat, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog(cat)

			desc, err := cat.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return f.FormatDescription(desc)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatter.FormatText, "Output format: text, markdown, or json")
	return cmd
}

func newExportCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole catalog as markdown files",
		Long:  `Writes _overview.md plus one <database>.md file per catalog database into --output-dir.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog(cat)

			snapshot, err := cat.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if err := formatter.NewMultiFileFormatter(outputDir).Format(snapshot); err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "catalog-docs", "Output directory")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog(cat)

			handler := server.New(cat, logging.WithComponent("server"))
			return server.Run(cmd.Context(), addr, handler)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive statement shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The shell owns the terminal; keep log lines out of it
			if logFile == "" {
				if err := logging.Init(logging.Config{Level: "error", Format: logFormat}); err != nil {
					return err
				}
			}

			cat, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog(cat)

			return shell.Run(cmd.Context(), cat, os.Stdin, cmd.OutOrStdout())
		},
	}
}
