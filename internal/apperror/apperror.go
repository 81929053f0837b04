// Package apperror is the error taxonomy shared by the catalog, the ledger
// and the reports. The HTTP boundary maps each Kind to a status code.
package apperror

import (
	"errors"
	"fmt"
	"time"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindWindowClosed
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindWindowClosed:
		return "window_closed"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Window carries the computed bounds of a booking or cancellation window.
// Opens is zero for cancellation, which has no lower bound.
type Window struct {
	Opens  time.Time
	Closes time.Time
}

type Error struct {
	Kind    Kind
	Message string
	Window  *Window
	// Err is the underlying cause. It is logged, never shown to end users.
	Err error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrWindowClosed = &Error{Kind: KindWindowClosed}
	ErrStorage      = &Error{Kind: KindStorage}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func WindowClosed(message string, w Window) *Error {
	return &Error{Kind: KindWindowClosed, Message: message, Window: &w}
}

// Storage wraps a persistence failure. op names the failed operation, e.g.
// "insert reservation".
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: op + " failed", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
