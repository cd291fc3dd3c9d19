package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Compare with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrAuthorization     = errors.New("not authorized")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Store-level sentinels. A Store returns these; the ledger translates them.
var (
	// ErrNoDocument means the referenced row does not exist.
	ErrNoDocument = errors.New("no document")
	// ErrConditionFailed means a conditional write matched nothing.
	ErrConditionFailed = errors.New("write condition not met")
)

// Error carries the failing operation and entity alongside its kind.
type Error struct {
	Op   string // e.g. "ledger.PlaceOrder"
	Kind error  // one of the Err* kinds above
	ID   string // entity involved, if any
	Msg  string
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.ID != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Op, e.ID, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(op string, kind error, id, format string, args ...interface{}) *Error {
	return &Error{Op: op, Kind: kind, ID: id, Msg: fmt.Sprintf(format, args...)}
}

// Message returns the human readable part of err, suitable for API clients.
func Message(err error) string {
	var le *Error
	if errors.As(err, &le) && le.Msg != "" {
		return le.Msg
	}
	return err.Error()
}

// ErrDuplicate is returned by InsertProfile when the email is taken.
var ErrDuplicate = errors.New("duplicate document")
