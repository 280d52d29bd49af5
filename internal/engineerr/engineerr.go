// Package engineerr defines the error taxonomy shared by every engine
// component (spec §7). Planners, parsers, the dispatcher, and the applier
// all return *Error rather than ad-hoc fmt.Errorf values so that the
// transport layer can map a failure onto the right JSON-RPC error code
// without re-deriving what went wrong.
package engineerr

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the ten error categories in spec §7.
type Kind string

const (
	InvalidRequest     Kind = "invalid_request"
	NotFound           Kind = "not_found"
	AlreadyExists      Kind = "already_exists"
	PermissionDenied   Kind = "permission_denied"
	ParseFailed        Kind = "parse_failed"
	MethodNotSupported Kind = "method_not_supported"
	AnalysisFailed     Kind = "analysis_failed"
	EditConflict       Kind = "edit_conflict"
	ValidationFailed   Kind = "validation_failed"
	Internal           Kind = "internal"
)

// Error is the structured error every engine package returns.
type Error struct {
	Kind    Kind
	Message string
	// Data carries the machine-readable payload described in spec §7,
	// e.g. EditConflict's {path, expected, actual} snippet pair.
	Data  map[string]interface{}
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// New constructs a bare engine error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithData attaches a structured data payload and returns the error for chaining.
func (e *Error) WithData(data map[string]interface{}) *Error {
	e.Data = data
	return e
}

// Wrap stack-annotates cause via github.com/pkg/errors and tags it with kind,
// so a failure surfaced from deep in a parser keeps its originating frame
// while still classifying cleanly for the dispatcher.
func Wrap(cause error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   errors.WithStack(cause),
	}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// JSONRPCCode maps a Kind onto a JSON-RPC error code: InvalidRequest is
// -32602 (invalid params), MethodNotSupported is -32601 (method not
// found), and every other Kind is the application code -1, differentiated
// by Kind in the data payload.
func (k Kind) JSONRPCCode() int {
	switch k {
	case InvalidRequest:
		return -32602
	case MethodNotSupported:
		return -32601
	default:
		return -1
	}
}
