// Package executor runs catalog statements: it classifies and translates the
// raw text, applies the resulting operation to the Catalog Store and reports
// the outcome together with the current database list.
package executor

import (
	"context"
	"log/slog"

	"github.com/tordrt/metacatalog/internal/db"
	"github.com/tordrt/metacatalog/internal/logging"
	"github.com/tordrt/metacatalog/internal/statement"
)

// Store is the part of the Catalog Store the executor mutates
type Store interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryStrings(ctx context.Context, query string, args ...any) ([]string, error)
	InTx(ctx context.Context, fn db.TxFunc) error
	DropSchemaQuery(name string) string
	// ProtectedSchema reports names DROP DATABASE must refuse on this backend
	ProtectedSchema(name string) bool
	DropCommitsImplicitly() bool
}

// Executor is the only component allowed to mutate the Catalog Store
type Executor struct {
	store Store
	log   *slog.Logger
}

// Option configures an Executor
type Option func(*Executor)

// WithLogger overrides the logger used for execution failures
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.log = l
	}
}

// New creates an executor over store
func New(store Store, opts ...Option) *Executor {
	e := &Executor{store: store}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.WithComponent("executor")
	}
	return e
}

// Execute classifies, translates and runs one statement.
//
// Statement errors are returned before the store is touched. A failure to
// re-read the database list after a successful statement does not fail the
// call; it is reported in Outcome.ErrorDetails.
func (e *Executor) Execute(ctx context.Context, text string) (*Outcome, error) {
	op, err := statement.Parse(text)
	if err != nil {
		return nil, err
	}

	if op.Kind == statement.KindDropDatabase {
		return e.dropDatabase(ctx, op)
	}

	var result any
	if op.Read() {
		names, err := e.store.QueryStrings(ctx, op.Query, op.Args...)
		if err != nil {
			e.log.Error("query execution failed", "kind", op.Kind.String(), "error", err.Error(), "code", db.ErrorCode(err))
			return nil, &BackendError{Kind: op.Kind, Err: err}
		}
		result = names
	} else {
		n, err := e.store.Exec(ctx, op.Query, op.Args...)
		if err != nil {
			e.log.Error("query execution failed", "kind", op.Kind.String(), "error", err.Error(), "code", db.ErrorCode(err))
			return nil, &BackendError{Kind: op.Kind, Err: err}
		}
		result = n
	}
	e.log.Debug("query executed", "kind", op.Kind.String(), "target", op.Target)

	out := &Outcome{
		Success:       true,
		Message:       msgExecuted,
		InternalQuery: op.Query,
		Result:        result,
	}
	e.attachDatabases(ctx, out)
	return out, nil
}

// attachDatabases fills in the current database list
func (e *Executor) attachDatabases(ctx context.Context, out *Outcome) {
	names, err := e.store.QueryStrings(ctx, statement.QueryShowDatabases)
	if err != nil {
		e.log.Warn("failed to list databases after execution", "error", err.Error())
		out.ErrorDetails = "failed to list databases: " + err.Error()
		return
	}
	out.Databases = names
}
