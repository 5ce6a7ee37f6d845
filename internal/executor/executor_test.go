package executor

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tordrt/metacatalog/internal/db"
	"github.com/tordrt/metacatalog/internal/logging"
	"github.com/tordrt/metacatalog/internal/statement"
)

var errInjected = errors.New("injected backend failure")

// spyStore wraps a real store, counting calls and failing on demand
type spyStore struct {
	Store
	calls         int
	drops         int
	failTxAt      int // 1-based statement inside InTx, 0 disables
	failDBListing bool
	// protect and implicitCommit emulate other backends over SQLite
	protect        map[string]bool
	implicitCommit bool
}

func (s *spyStore) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	s.calls++
	return s.Store.Exec(ctx, query, args...)
}

func (s *spyStore) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	s.calls++
	if s.failDBListing && query == statement.QueryShowDatabases {
		return nil, errInjected
	}
	return s.Store.QueryStrings(ctx, query, args...)
}

func (s *spyStore) InTx(ctx context.Context, fn db.TxFunc) error {
	s.calls++
	return s.Store.InTx(ctx, func(ctx context.Context, tx db.Execer) error {
		return fn(ctx, &spyTx{tx: tx, store: s})
	})
}

func (s *spyStore) ProtectedSchema(name string) bool {
	return s.protect[name] || s.Store.ProtectedSchema(name)
}

func (s *spyStore) DropCommitsImplicitly() bool {
	return s.implicitCommit || s.Store.DropCommitsImplicitly()
}

type spyTx struct {
	tx    db.Execer
	store *spyStore
	n     int
}

func (t *spyTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	t.n++
	if t.n == t.store.failTxAt {
		return 0, errInjected
	}
	if strings.HasPrefix(query, "DROP ") {
		t.store.drops++
	}
	return t.tx.Exec(ctx, query, args...)
}

func newTestClient(t *testing.T) *db.SQLiteClient {
	t.Helper()
	ctx := context.Background()

	client, err := db.NewSQLiteClient(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	return client
}

func newTestExecutor(t *testing.T, store Store) (*Executor, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := logging.New(&buf, "text", "debug")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return New(store, WithLogger(l)), &buf
}

func mustExecute(t *testing.T, e *Executor, stmt string) *Outcome {
	t.Helper()
	out, err := e.Execute(context.Background(), stmt)
	if err != nil {
		t.Fatalf("Execute(%q) failed: %v", stmt, err)
	}
	return out
}

func countRows(t *testing.T, client *db.SQLiteClient, query string, args ...any) int {
	t.Helper()
	var n int
	if err := client.GetDB().QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	return n
}

type relationCounts struct {
	databases, tables, attributes, fkeys, fkeyAttributes, values int
}

func snapshot(t *testing.T, client *db.SQLiteClient, dbName string) relationCounts {
	t.Helper()
	const tables = `SELECT table_id FROM general_table_tables WHERE db_id IN (SELECT id_bd FROM general_bd_tables WHERE db_name = ?)`
	return relationCounts{
		databases:      countRows(t, client, `SELECT COUNT(*) FROM general_bd_tables WHERE db_name = ?`, dbName),
		tables:         countRows(t, client, `SELECT COUNT(*) FROM (`+tables+`)`, dbName),
		attributes:     countRows(t, client, `SELECT COUNT(*) FROM general_attribute_tables WHERE table_id IN (`+tables+`)`, dbName),
		fkeys:          countRows(t, client, `SELECT COUNT(*) FROM general_fkey_tables WHERE source_table_id IN (`+tables+`) OR target_table_id IN (`+tables+`)`, dbName, dbName),
		fkeyAttributes: countRows(t, client, `SELECT COUNT(*) FROM general_fkey_attribute_tables`),
		values:         countRows(t, client, `SELECT COUNT(*) FROM general_value_tables WHERE table_id IN (`+tables+`)`, dbName),
	}
}

// seedShop creates a database with two linked tables, attributes and values
func seedShop(t *testing.T, e *Executor, client *db.SQLiteClient) {
	t.Helper()
	ctx := context.Background()

	for _, stmt := range []string{
		"CREATE DATABASE shop",
		"CREATE TABLE customers (id int, name text) FROM shop",
		"CREATE TABLE orders (id int, customer_id int) FROM shop",
		"ALTER TABLE customers ADD id int",
		"ALTER TABLE orders ADD customer_id int",
		"INSERT INTO customers (id,name) VALUES (1,'ada')",
		"INSERT INTO orders (id,customer_id) VALUES (10,1)",
	} {
		mustExecute(t, e, stmt)
	}

	if _, err := client.Exec(ctx, `INSERT INTO general_fkey_tables (source_table_id, target_table_id)
		VALUES ((SELECT table_id FROM general_table_tables WHERE table_name = 'orders'),
			(SELECT table_id FROM general_table_tables WHERE table_name = 'customers'))`); err != nil {
		t.Fatalf("Failed to seed foreign key: %v", err)
	}
	if _, err := client.Exec(ctx, `INSERT INTO general_fkey_attribute_tables (constraint_id, source_attribute_id, target_attribute_id)
		VALUES ((SELECT MAX(constraint_id) FROM general_fkey_tables),
			(SELECT attribute_id FROM general_attribute_tables WHERE attribute_name = 'customer_id'),
			(SELECT attribute_id FROM general_attribute_tables WHERE attribute_name = 'id'))`); err != nil {
		t.Fatalf("Failed to seed foreign key attribute: %v", err)
	}
	// Physical object backing the database on SQLite
	if _, err := client.Exec(ctx, `CREATE TABLE "shop" (id INTEGER)`); err != nil {
		t.Fatalf("Failed to create backing table: %v", err)
	}
}

func TestExecuteCreateAndShow(t *testing.T) {
	client := newTestClient(t)
	e, _ := newTestExecutor(t, client)

	out := mustExecute(t, e, "  create database sales  ")
	if !out.Success {
		t.Fatalf("Expected success, got %+v", out)
	}
	if out.InternalQuery != statement.QueryCreateDatabase {
		t.Errorf("Unexpected internal query %q", out.InternalQuery)
	}
	if len(out.Databases) != 1 || out.Databases[0] != "sales" {
		t.Errorf("Expected databases [sales], got %v", out.Databases)
	}

	mustExecute(t, e, "CREATE DATABASE crm")
	mustExecute(t, e, "CREATE TABLE invoices (id int) FROM sales")
	mustExecute(t, e, "CREATE TABLE refunds (id int) FROM sales")

	first := mustExecute(t, e, "SHOW TABLES FROM sales")
	second := mustExecute(t, e, "SHOW TABLES FROM sales")

	got, ok := first.Result.([]string)
	if !ok {
		t.Fatalf("Expected []string result, got %T", first.Result)
	}
	want := []string{"refunds", "invoices"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("SHOW TABLES = %v, want %v", got, want)
	}
	if strings.Join(second.Result.([]string), ",") != strings.Join(got, ",") {
		t.Errorf("Repeated SHOW TABLES changed order: %v vs %v", got, second.Result)
	}

	dbs := mustExecute(t, e, "SHOW DATABASES")
	if strings.Join(dbs.Result.([]string), ",") != "crm,sales" {
		t.Errorf("SHOW DATABASES = %v, want [crm sales]", dbs.Result)
	}
}

func TestExecuteInsertUpdateDelete(t *testing.T) {
	client := newTestClient(t)
	e, _ := newTestExecutor(t, client)

	mustExecute(t, e, "CREATE DATABASE shop")
	mustExecute(t, e, "CREATE TABLE orders (id int, name text) FROM shop")

	out := mustExecute(t, e, "INSERT INTO orders (id,name) VALUES (1,'x')")
	if n, _ := out.Result.(int64); n != 1 {
		t.Errorf("Expected 1 row inserted, got %v", out.Result)
	}

	values, err := client.Values(context.Background(), "orders")
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	if len(values) != 1 || len(values[0].Values) != 2 || values[0].Values[1].Value != "'x'" {
		t.Fatalf("Unexpected stored values: %+v", values)
	}

	out = mustExecute(t, e, `UPDATE orders SET attribute_values = '{"id":"2"}' WHERE attribute_values LIKE '%"1"%'`)
	if n, _ := out.Result.(int64); n != 1 {
		t.Errorf("Expected 1 row updated, got %v", out.Result)
	}

	out = mustExecute(t, e, `DELETE FROM orders WHERE attribute_values LIKE '%"2"%'`)
	if n, _ := out.Result.(int64); n != 1 {
		t.Errorf("Expected 1 row deleted, got %v", out.Result)
	}
}

func TestExecuteBackendFailure(t *testing.T) {
	client := newTestClient(t)
	e, _ := newTestExecutor(t, client)

	mustExecute(t, e, "CREATE DATABASE shop")

	// Duplicate names violate the uniqueness of db_name
	_, err := e.Execute(context.Background(), "CREATE DATABASE shop")
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected BackendError, got %v", err)
	}
	if backendErr.Kind != statement.KindCreateDatabase {
		t.Errorf("Expected kind CREATE_DATABASE, got %s", backendErr.Kind)
	}

	// Unknown database leaves db_id NULL
	if _, err := e.Execute(context.Background(), "CREATE TABLE t (id int) FROM nowhere"); !errors.As(err, &backendErr) {
		t.Errorf("Expected BackendError for missing database, got %v", err)
	}

	out := ErrorOutcome(err)
	if out.Success || out.ErrorDetails == "" {
		t.Errorf("Expected failure envelope with details, got %+v", out)
	}
}

func TestExecuteRejectsBeforeStore(t *testing.T) {
	tests := []struct {
		name    string
		stmt    string
		wantErr error
		kind    statement.Kind
	}{
		{name: "unsupported", stmt: "FOO BAR", wantErr: statement.ErrUnsupportedStatement},
		{name: "create table without columns", stmt: "CREATE TABLE orders", wantErr: statement.ErrInvalidSyntax, kind: statement.KindCreateTable},
		{name: "drop table", stmt: "DROP TABLE orders", wantErr: statement.ErrNotImplemented, kind: statement.KindDropTable},
		{name: "show tables without database", stmt: "SHOW TABLES", wantErr: statement.ErrDatabaseNameMissing, kind: statement.KindShowTables},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyStore{Store: newTestClient(t)}
			e, _ := newTestExecutor(t, spy)

			_, err := e.Execute(context.Background(), tt.stmt)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.kind != statement.KindUnknown {
				var stmtErr *statement.Error
				if !errors.As(err, &stmtErr) || stmtErr.Kind != tt.kind {
					t.Errorf("Expected statement error of kind %s, got %v", tt.kind, err)
				}
			}
			if spy.calls != 0 {
				t.Errorf("Expected no store calls, got %d", spy.calls)
			}
		})
	}
}

func TestExecuteDatabaseListFailureIsSurfaced(t *testing.T) {
	spy := &spyStore{Store: newTestClient(t), failDBListing: true}
	e, _ := newTestExecutor(t, spy)

	out, err := e.Execute(context.Background(), "CREATE DATABASE shop")
	if err != nil {
		t.Fatalf("Statement should succeed, got %v", err)
	}
	if !out.Success {
		t.Error("Expected success for the applied statement")
	}
	if !strings.Contains(out.ErrorDetails, "failed to list databases") {
		t.Errorf("Expected listing failure in details, got %q", out.ErrorDetails)
	}
	if out.Databases != nil {
		t.Errorf("Expected no database list, got %v", out.Databases)
	}
}

func TestDropDatabaseCascade(t *testing.T) {
	client := newTestClient(t)
	spy := &spyStore{Store: client}
	e, _ := newTestExecutor(t, spy)

	seedShop(t, e, client)
	mustExecute(t, e, "CREATE DATABASE crm")
	mustExecute(t, e, "CREATE TABLE leads (id int) FROM crm")

	out := mustExecute(t, e, "DROP DATABASE shop")
	if !out.Success || out.Message != msgDropped {
		t.Fatalf("Unexpected outcome %+v", out)
	}

	steps, ok := out.Result.([]string)
	if !ok || len(steps) != 5 {
		t.Fatalf("Expected 5 executed steps, got %v", out.Result)
	}
	if steps[4] != client.DropSchemaQuery("shop") {
		t.Errorf("Expected physical drop last, got %q", steps[4])
	}
	if spy.drops != 1 {
		t.Errorf("Expected exactly one physical drop, got %d", spy.drops)
	}

	got := snapshot(t, client, "shop")
	if got != (relationCounts{}) {
		t.Errorf("Expected no rows left for shop, got %+v", got)
	}
	if n := countRows(t, client, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'shop'`); n != 0 {
		t.Error("Expected backing table to be dropped")
	}
	if n := countRows(t, client, `SELECT COUNT(*) FROM general_value_tables`); n != 0 {
		t.Errorf("Expected values of shop to be removed, got %d", n)
	}

	if strings.Join(out.Databases, ",") != "crm" {
		t.Errorf("Expected remaining databases [crm], got %v", out.Databases)
	}
	tables, err := client.Tables(context.Background(), "crm")
	if err != nil || len(tables) != 1 {
		t.Errorf("Expected crm to keep its table, got %v (%v)", tables, err)
	}
}

func TestDropDatabaseRollsBack(t *testing.T) {
	for failAt := 1; failAt <= 5; failAt++ {
		t.Run(CascadeState(failAt).String(), func(t *testing.T) {
			client := newTestClient(t)
			spy := &spyStore{Store: client}
			e, logs := newTestExecutor(t, spy)

			seedShop(t, e, client)
			before := snapshot(t, client, "shop")

			spy.failTxAt = failAt
			out, err := e.Execute(context.Background(), "DROP DATABASE shop")
			if out != nil {
				t.Errorf("Expected no outcome on failure, got %+v", out)
			}

			var txErr *TxAbortedError
			if !errors.As(err, &txErr) {
				t.Fatalf("Expected TxAbortedError, got %v", err)
			}
			if txErr.FailedAt != CascadeState(failAt) {
				t.Errorf("Expected failure at %s, got %s", CascadeState(failAt), txErr.FailedAt)
			}
			if !errors.Is(err, errInjected) {
				t.Error("Expected cause to be reachable through Unwrap")
			}

			envelope := ErrorOutcome(err)
			if strings.Contains(envelope.Message, errInjected.Error()) || envelope.ErrorDetails != "" || envelope.Result != nil {
				t.Errorf("Failure envelope leaks detail: %+v", envelope)
			}

			after := snapshot(t, client, "shop")
			if after != before {
				t.Errorf("Rollback incomplete: before %+v, after %+v", before, after)
			}
			if n := countRows(t, client, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'shop'`); n != 1 {
				t.Error("Expected backing table to survive the rollback")
			}
			if !strings.Contains(logs.String(), "failed_at="+CascadeState(failAt).String()) {
				t.Errorf("Expected failing step in log, got %q", logs.String())
			}
		})
	}
}

func TestExecuteTableNamesAreGlobal(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	e, _ := newTestExecutor(t, client)

	mustExecute(t, e, "CREATE DATABASE a")
	mustExecute(t, e, "CREATE DATABASE b")
	mustExecute(t, e, "CREATE TABLE orders (id int) FROM a")

	// INSERT resolves the table by name alone
	var backendErr *BackendError
	if _, err := e.Execute(ctx, "CREATE TABLE orders (id int) FROM b"); !errors.As(err, &backendErr) {
		t.Fatalf("Expected BackendError for a name taken by another database, got %v", err)
	}

	mustExecute(t, e, "DROP DATABASE a")
	mustExecute(t, e, "CREATE DATABASE a")
	mustExecute(t, e, "CREATE TABLE orders (id int) FROM a")
	mustExecute(t, e, "INSERT INTO orders (id) VALUES (1)")

	if got := snapshot(t, client, "a"); got.tables != 1 || got.values != 1 {
		t.Errorf("Expected the row in a.orders, got %+v", got)
	}
	if got := snapshot(t, client, "b"); got.tables != 0 || got.values != 0 {
		t.Errorf("Expected b to stay empty, got %+v", got)
	}

	// Dropping a frees the name for b
	mustExecute(t, e, "DROP DATABASE a")
	mustExecute(t, e, "CREATE TABLE orders (id int) FROM b")
	mustExecute(t, e, "INSERT INTO orders (id) VALUES (2)")
	if got := snapshot(t, client, "b"); got.tables != 1 || got.values != 1 {
		t.Errorf("Expected the row in b.orders, got %+v", got)
	}
	if n := countRows(t, client, `SELECT COUNT(*) FROM general_value_tables`); n != 1 {
		t.Errorf("Expected only b's row to remain, got %d", n)
	}
}

func TestDropDatabaseRefusesProtectedSchema(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		protect map[string]bool
	}{
		{name: "postgres public", schema: "public", protect: map[string]bool{"public": true}},
		{name: "mysql catalog database", schema: "catalog", protect: map[string]bool{"catalog": true}},
		{name: "sqlite internal table", schema: "sqlite_sequence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t)
			spy := &spyStore{Store: client, protect: tt.protect}
			e, logs := newTestExecutor(t, spy)

			mustExecute(t, e, "CREATE DATABASE "+tt.schema)
			mustExecute(t, e, "CREATE TABLE items (id int) FROM "+tt.schema)
			before := snapshot(t, client, tt.schema)
			calls := spy.calls

			out, err := e.Execute(context.Background(), "DROP DATABASE "+tt.schema)
			if out != nil {
				t.Errorf("Expected no outcome, got %+v", out)
			}
			if !errors.Is(err, statement.ErrReservedName) {
				t.Fatalf("Expected ErrReservedName, got %v", err)
			}
			var stmtErr *statement.Error
			if !errors.As(err, &stmtErr) || stmtErr.Kind != statement.KindDropDatabase {
				t.Errorf("Expected DROP_DATABASE statement error, got %v", err)
			}
			if spy.calls != calls || spy.drops != 0 {
				t.Errorf("Expected no store calls, got %d calls and %d drops", spy.calls-calls, spy.drops)
			}
			if after := snapshot(t, client, tt.schema); after != before {
				t.Errorf("Catalog changed: before %+v, after %+v", before, after)
			}
			if !strings.Contains(logs.String(), "refused to drop protected schema") {
				t.Errorf("Expected refusal in log, got %q", logs.String())
			}
		})
	}
}

func TestDropDatabaseWarnsOnImplicitCommit(t *testing.T) {
	const warning = "physical drop commits the catalog changes before it runs"

	for _, implicit := range []bool{false, true} {
		client := newTestClient(t)
		spy := &spyStore{Store: client, implicitCommit: implicit}
		e, logs := newTestExecutor(t, spy)

		seedShop(t, e, client)
		mustExecute(t, e, "DROP DATABASE shop")

		if got := strings.Contains(logs.String(), warning); got != implicit {
			t.Errorf("implicitCommit=%v: warning logged = %v, logs %q", implicit, got, logs.String())
		}
		if implicit && !strings.Contains(logs.String(), "state=step5") {
			t.Errorf("Expected warning at step5, got %q", logs.String())
		}
	}
}
