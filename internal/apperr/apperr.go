// Package apperr is the error taxonomy shared by the catalog and order packages.
//
// Every business failure is an *Error carrying a Kind. Callers match on the kind
// with errors.Is against the kind sentinels (ErrNotFound, ErrConflict, ...), and
// the HTTP layer maps kinds to status codes with HTTPStatus.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindConflict
	KindInsufficientStock
	KindInvalidStatus
	KindInvalidTransition
	KindTerminalState
	KindStorage
)

var kindNames = map[Kind]string{
	KindInternal:          "Internal",
	KindInvalidInput:      "InvalidInput",
	KindNotFound:          "NotFound",
	KindConflict:          "Conflict",
	KindInsufficientStock: "InsufficientStock",
	KindInvalidStatus:     "InvalidStatus",
	KindInvalidTransition: "InvalidTransition",
	KindTerminalState:     "TerminalStateViolation",
	KindStorage:           "StorageError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a classified failure. Message is safe to show to clients; Err is the
// underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality against the bare kind sentinels below, so
// errors.Is(err, apperr.ErrNotFound) holds for any NotFound error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels. Compare with errors.Is, never return them directly.
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrInvalidStatus     = &Error{Kind: KindInvalidStatus}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrTerminalState     = &Error{Kind: KindTerminalState}
	ErrStorage           = &Error{Kind: KindStorage}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a driver error. A nil err yields nil.
func Storage(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// PublicMessage is what a client may see for err.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case KindStorage, KindInternal:
			return "internal server error"
		}
		if ae.Message != "" {
			return ae.Message
		}
		return ae.Kind.String()
	}
	return "internal server error"
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput, KindConflict, KindInsufficientStock,
		KindInvalidStatus, KindInvalidTransition, KindTerminalState:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
