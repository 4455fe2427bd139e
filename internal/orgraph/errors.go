package orgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid matches every *ValidationError through errors.Is.
	ErrInvalid = errors.New("invalid organization graph")
	// ErrNotFound matches every *NotFoundError through errors.Is.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports input that breaks the structural rules of the
// organization graph: malformed documents, unknown edge endpoints,
// self-loops or duplicate identities.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// NotFoundError is returned when an operation references an entity that is
// not part of the roster. It is a precondition failure of the caller.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// withField prefixes the field of a validation error, e.g. "pegawai[2]".
func withField(err error, prefix string) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	field := prefix
	if verr.Field != "" {
		field = prefix + "." + verr.Field
	}

	return &ValidationError{Field: field, Reason: verr.Reason, Err: verr.Err}
}
