package shared

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into a stable machine-readable category.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindTransaction    Kind = "transaction"
)

// Error carries a kind, a stable code and a human readable message.
// The message may embed current state; the code never changes.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind and code so sentinel values work
// with errors.Is even when the returned error carries extra state.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// ErrNotFound indicates the target entity does not exist.
var ErrNotFound = &Error{Kind: KindNotFound, Code: "not_found", Message: "resource not found"}

// Authentication builds a credential-level failure.
func Authentication(code, format string, args ...any) *Error {
	return &Error{Kind: KindAuthentication, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Authorization builds an insufficient-privilege failure.
func Authorization(code, format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds a malformed-input failure.
func Invalid(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a state-conflict failure.
func Conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// TransactionFailed wraps a store-level error. The operation rolled back
// completely, so the caller may retry it against the starting state.
func TransactionFailed(op string, err error) *Error {
	return &Error{Kind: KindTransaction, Code: "transaction_failed", Message: op + " failed", Err: err}
}

// KindOf extracts the kind from err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf extracts the stable code from err, or "" for unclassified errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
