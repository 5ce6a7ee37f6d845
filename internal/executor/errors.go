package executor

import (
	"fmt"

	"github.com/tordrt/metacatalog/internal/statement"
)

// BackendError reports that the Catalog Store rejected a single statement
type BackendError struct {
	Kind statement.Kind
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("failed to execute %s: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// TxAbortedError reports that the DROP DATABASE cascade was rolled back.
// Error() omits the cause; use errors.Unwrap to inspect it.
type TxAbortedError struct {
	Database string
	// FailedAt is the step that failed, or StateCommitted when the commit did
	FailedAt CascadeState
	Err      error
}

func (e *TxAbortedError) Error() string {
	return "failed to drop database"
}

func (e *TxAbortedError) Unwrap() error {
	return e.Err
}
