package executor

import (
	"errors"

	"github.com/tordrt/metacatalog/internal/db"
)

// Outcome is the response envelope returned for every executed statement
type Outcome struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	InternalQuery string   `json:"internal_query,omitempty"`
	Databases     []string `json:"databases,omitempty"`
	Result        any      `json:"result,omitempty"`
	ErrorDetails  string   `json:"error_details,omitempty"`
}

const (
	msgExecuted = "Query executed successfully."
	msgDropped  = "Database and associated records dropped successfully."
	msgFailed   = "Failed to execute query: "
)

// ErrorOutcome builds the failure envelope for an error returned by Execute.
// Aborted transactions only expose a generic message.
func ErrorOutcome(err error) *Outcome {
	out := &Outcome{Success: false, Message: msgFailed + err.Error()}

	var txErr *TxAbortedError
	if errors.As(err, &txErr) {
		return out
	}

	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		out.ErrorDetails = backendErr.Err.Error()
		if code := db.ErrorCode(backendErr.Err); code != "" {
			out.ErrorDetails += " (code " + code + ")"
		}
	}
	return out
}
