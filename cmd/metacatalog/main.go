package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tordrt/metacatalog"
	"github.com/tordrt/metacatalog/internal/logging"
)

const envDatabaseURL = "METACATALOG_URL"

var (
	dbURL      string
	mysqlURL   string
	sqlitePath string
	logLevel   string
	logFormat  string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "metacatalog",
	Short: "Manage a meta-catalog of databases, tables and values",
	Long: `metacatalog keeps logical databases, tables and value records in a set of
control relations on PostgreSQL, MySQL, or SQLite, and drives them through a
small SQL-like command language.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Init(logging.Config{Level: logLevel, Format: logFormat, OutputPath: logFile})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := logging.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close log file: %v\n", err)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	flags.StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	flags.StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, or error")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	flags.StringVar(&logFile, "log-file", "", "Log file (default: stderr)")

	rootCmd.AddCommand(
		newInitCmd(),
		newExecCmd(),
		newDatabasesCmd(),
		newTablesCmd(),
		newDescribeCmd(),
		newExportCmd(),
		newServeCmd(),
		newShellCmd(),
	)
}

// resolveDatabaseURL turns the connection flags into a catalog URL, falling
// back to the environment when no flag is set
func resolveDatabaseURL() (string, error) {
	// Validate database flags
	dbCount := 0
	if dbURL != "" {
		dbCount++
	}
	if mysqlURL != "" {
		dbCount++
	}
	if sqlitePath != "" {
		dbCount++
	}
	if dbCount > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	switch {
	case sqlitePath != "":
		return "sqlite://" + sqlitePath, nil
	case mysqlURL != "":
		return "mysql://" + mysqlURL, nil
	case dbURL != "":
		return dbURL, nil
	}

	if url := os.Getenv(envDatabaseURL); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("one of --db-url, --mysql-url, or --sqlite must be specified (or set %s)", envDatabaseURL)
}

// openCatalog connects to the configured catalog. The caller must call
// closeCatalog when done.
func openCatalog(ctx context.Context) (*metacatalog.Catalog, error) {
	url, err := resolveDatabaseURL()
	if err != nil {
		return nil, err
	}
	return metacatalog.Open(ctx, url, &metacatalog.Options{
		Logger: logging.WithComponent("executor"),
	})
}

func closeCatalog(cat *metacatalog.Catalog) {
	if err := cat.Close(); err != nil {
		logging.WithError(err).Warn("failed to close catalog connection")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
