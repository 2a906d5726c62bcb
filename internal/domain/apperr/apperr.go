// Package apperr classifies domain failures into kinds the transport layer
// can map to responses without knowing every concrete error type.
package apperr

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind is the machine-distinguishable category of a failure.
type Kind int

const (
	// KindInternal covers every error that carries no explicit kind.
	KindInternal Kind = iota
	// KindValidation marks bad input rejected before any write.
	KindValidation
	// KindNotFound marks a referenced record that does not exist.
	KindNotFound
	// KindForbidden marks an actor lacking the capability for an action.
	KindForbidden
	// KindUnauthorized marks a credential that could not be verified.
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is a message tagged with a Kind. Sentinels built with the
// constructors below compare by identity with errors.Is.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Kind reports the failure category.
func (e *Error) Kind() Kind { return e.kind }

// Validation returns a KindValidation error.
func Validation(msg string) error { return &Error{kind: KindValidation, msg: msg} }

// Validationf formats a KindValidation error.
func Validationf(format string, args ...any) error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error.
func NotFound(msg string) error { return &Error{kind: KindNotFound, msg: msg} }

// Forbidden returns a KindForbidden error.
func Forbidden(msg string) error { return &Error{kind: KindForbidden, msg: msg} }

// Unauthorized returns a KindUnauthorized error.
func Unauthorized(msg string) error { return &Error{kind: KindUnauthorized, msg: msg} }

// kinded is implemented by every error type that knows its category,
// including typed errors declared in domain packages.
type kinded interface {
	Kind() Kind
}

// KindOf walks the error chain and returns the first explicit kind found.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
