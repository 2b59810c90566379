package types

import (
	"errors"
	"fmt"
	"strings"
)

// Store lookup errors.
var (
	// ErrNotFound reports that an id did not resolve. It is a normal outcome,
	// not a fault.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate reports a unique constraint violation, such as a taken
	// username.
	ErrDuplicate = errors.New("entity already exists")
)

// FieldError names one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every field that failed validation. A nil or
// empty ValidationErrors means the input is valid; use Err to turn it into
// an error value.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Error()
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Err returns v as an error, or nil when v is empty.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// ReferenceError reports that a reference field names an entity that does
// not exist, or exists under a different task. It belongs to the validation
// class: nothing was written.
type ReferenceError struct {
	Field string
	ID    int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: no matching entity with id %d", e.Field, e.ID)
}

// FieldErrors presents the reference failure in the same shape as
// ValidationErrors so callers can report both uniformly.
func (e *ReferenceError) FieldErrors() ValidationErrors {
	return ValidationErrors{{Field: e.Field, Message: fmt.Sprintf("references unknown id %d", e.ID)}}
}

// BackendError wraps a storage engine failure: connectivity, I/O, or an
// unexpected constraint violation. The operation did not take effect.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() error { return e.Err }

// Backend wraps err as a BackendError for op. It returns nil for a nil err
// and passes through errors that already carry a store meaning.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	var re *ReferenceError
	if errors.As(err, &be) || errors.As(err, &re) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) {
		return err
	}
	return &BackendError{Op: op, Err: err}
}
