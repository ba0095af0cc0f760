package prefkit

import (
	"errors"
	"fmt"
)

// Standard sentinel errors returned by generated accessors.
var (
	// ErrUpdateFailed is returned when an update could not persist one or more fields.
	ErrUpdateFailed = errors.New("prefkit: update failed")

	// ErrInvalidOrdinal is returned when a stored enum ordinal is outside its range.
	ErrInvalidOrdinal = errors.New("prefkit: invalid enum ordinal")
)

// UpdateError represents a failed write of a single field during an update.
type UpdateError struct {
	Schema string // Schema type name
	Field  string // Field name
	Err    error  // Underlying store error
}

// Error returns the error string.
func (e *UpdateError) Error() string {
	return fmt.Sprintf("prefkit: update %s.%s: %v", e.Schema, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches UpdateError.
// This allows errors.Is(updateErr, ErrUpdateFailed) to return true.
func (e *UpdateError) Is(err error) bool {
	return err == ErrUpdateFailed
}

// NewUpdateError returns a new UpdateError for the given schema field.
func NewUpdateError(schema, field string, err error) *UpdateError {
	return &UpdateError{Schema: schema, Field: field, Err: err}
}

// IsUpdateError returns true if the error is an UpdateError.
func IsUpdateError(err error) bool {
	if err == nil {
		return false
	}
	var e *UpdateError
	return errors.As(err, &e)
}

// OrdinalError represents a stored ordinal that does not map to an enum constant.
type OrdinalError struct {
	Ordinal int32
	Size    int
}

// Error returns the error string.
func (e *OrdinalError) Error() string {
	return fmt.Sprintf("prefkit: ordinal %d out of range [0, %d)", e.Ordinal, e.Size)
}

// Is reports whether the target error matches OrdinalError.
func (e *OrdinalError) Is(err error) bool {
	return err == ErrInvalidOrdinal
}

// CheckOrdinal returns an OrdinalError if o is not a valid ordinal of an enum with n constants.
func CheckOrdinal(o int32, n int) error {
	if !ValidOrdinal(o, n) {
		return &OrdinalError{Ordinal: o, Size: n}
	}
	return nil
}
