package statement

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedStatement is returned when the text matches no known leading pattern
	ErrUnsupportedStatement = errors.New("unsupported query type")

	// ErrInvalidSyntax is returned when the leading keywords matched but the body did not
	ErrInvalidSyntax = errors.New("invalid query")

	// ErrDatabaseNameMissing is returned when a required FROM <db> fragment is absent
	ErrDatabaseNameMissing = errors.New("database name not found in query")

	// ErrNotImplemented is returned for recognized kinds that have no translator
	ErrNotImplemented = errors.New("statement kind not implemented")

	// ErrReservedName is returned when a database name belongs to a control
	// relation or to a schema owned by the backend
	ErrReservedName = errors.New("name is reserved by the catalog")
)

// Error ties a statement failure to the kind that was being handled
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	switch e.Err {
	case ErrInvalidSyntax:
		return fmt.Sprintf("invalid %s query", e.Kind)
	case ErrNotImplemented:
		return fmt.Sprintf("%s is not implemented", e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(kind Kind) error {
	return &Error{Kind: kind, Err: ErrInvalidSyntax}
}
