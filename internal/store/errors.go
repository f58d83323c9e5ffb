package store

import (
	"errors"
	"fmt"

	"github.com/erazemk/auditmagic/internal/model"
)

// ErrNotFound is returned when a referenced row does not exist and the caller
// has no other way to tell.
var ErrNotFound = errors.New("not found")

// ValidationError reports a request that violates a domain rule. The message
// is meant to be shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports that an item type already exists with a different
// serialization mode. It also matches *ValidationError with errors.As.
type ConflictError struct {
	Name      string
	SubType   string
	Existing  bool
	Requested bool
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"ItemType '%s' (sub_type='%s') already exists as %s. Cannot use it as %s. "+
			"Choose a different name/sub-type or keep the same serialization mode.",
		e.Name, e.SubType, model.SerializationMode(e.Existing), model.SerializationMode(e.Requested))
}

// As lets errors.As(err, **ValidationError) match a conflict.
func (e *ConflictError) As(target any) bool {
	if v, ok := target.(**ValidationError); ok {
		*v = &ValidationError{Message: e.Error()}
		return true
	}
	return false
}

// DuplicateError reports that a row with the same unique name already
// exists. It also matches *ValidationError with errors.As.
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string { return e.Message }

// As lets errors.As(err, **ValidationError) match a duplicate.
func (e *DuplicateError) As(target any) bool {
	if v, ok := target.(**ValidationError); ok {
		*v = &ValidationError{Message: e.Message}
		return true
	}
	return false
}

// IsValidation reports whether err is a ValidationError (including conflicts).
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsDuplicate reports whether err is a DuplicateError.
func IsDuplicate(err error) bool {
	var d *DuplicateError
	return errors.As(err, &d)
}
