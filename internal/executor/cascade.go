package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/metacatalog/internal/db"
	"github.com/tordrt/metacatalog/internal/statement"
)

// CascadeState is the progress of a DROP DATABASE cascade
type CascadeState int

const (
	StateStarted CascadeState = iota
	StateStep1
	StateStep2
	StateStep3
	StateStep4
	StateStep5
	StateCommitted
	StateRolledBack
)

func (s CascadeState) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	}
	if s >= StateStep1 && s <= StateStep5 {
		return fmt.Sprintf("step%d", int(s))
	}
	return "unknown"
}

const tablesOfDatabase = `SELECT table_id FROM general_table_tables WHERE db_id IN (SELECT id_bd FROM general_bd_tables WHERE db_name = ?)`

const (
	queryDropFKeyAttributes = `DELETE FROM general_fkey_attribute_tables WHERE constraint_id IN (SELECT constraint_id FROM general_fkey_tables WHERE source_table_id IN (` + tablesOfDatabase + `) OR target_table_id IN (` + tablesOfDatabase + `))`
	queryDropAttributes     = `DELETE FROM general_attribute_tables WHERE table_id IN (` + tablesOfDatabase + `)`
	queryDropFKeys          = `DELETE FROM general_fkey_tables WHERE source_table_id IN (` + tablesOfDatabase + `) OR target_table_id IN (` + tablesOfDatabase + `)`
)

type cascadeStep struct {
	state CascadeState
	query string
	args  []any
}

// cascadeSteps lists the DROP DATABASE steps in their fixed order
func cascadeSteps(name, dropSchema string) []cascadeStep {
	return []cascadeStep{
		{StateStep1, queryDropFKeyAttributes, []any{name, name}},
		{StateStep2, queryDropAttributes, []any{name}},
		{StateStep3, queryDropFKeys, []any{name, name}},
		{StateStep4, statement.QueryDropDatabase, []any{name}},
		{StateStep5, dropSchema, nil},
	}
}

// dropDatabase runs the cascade in one transaction. The transaction commits
// after step 5 and success is only reported once the commit returned.
//
// Names the backend protects are refused before a transaction is opened.
// On backends whose physical drop commits implicitly, steps 1 to 4 are
// durable even if step 5 fails; a warning is logged before the drop.
func (e *Executor) dropDatabase(ctx context.Context, op *statement.Operation) (*Outcome, error) {
	name := op.Target
	log := e.log.With("database", name)
	if e.store.ProtectedSchema(name) {
		log.Warn("refused to drop protected schema")
		return nil, &statement.Error{Kind: statement.KindDropDatabase, Err: statement.ErrReservedName}
	}
	steps := cascadeSteps(name, e.store.DropSchemaQuery(name))
	implicitCommit := e.store.DropCommitsImplicitly()

	state := StateStarted
	executed := make([]string, 0, len(steps))

	err := e.store.InTx(ctx, func(ctx context.Context, tx db.Execer) error {
		for _, s := range steps {
			state = s.state
			if s.state == StateStep5 && implicitCommit {
				log.Warn("physical drop commits the catalog changes before it runs",
					"state", state.String(),
				)
			}
			if _, err := tx.Exec(ctx, s.query, s.args...); err != nil {
				return err
			}
			executed = append(executed, s.query)
		}
		// InTx commits once this returns nil
		state = StateCommitted
		return nil
	})
	if err != nil {
		log.Error("failed to execute DROP DATABASE query",
			"state", StateRolledBack.String(),
			"failed_at", state.String(),
			"error", err.Error(),
			"code", db.ErrorCode(err),
		)
		return nil, &TxAbortedError{Database: name, FailedAt: state, Err: err}
	}
	log.Info("database dropped", "state", state.String(), "steps", len(executed))

	out := &Outcome{
		Success:       true,
		Message:       msgDropped,
		InternalQuery: strings.Join(executed, ";\n"),
		Result:        executed,
	}
	e.attachDatabases(ctx, out)
	return out, nil
}
