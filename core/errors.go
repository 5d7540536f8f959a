package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return err.Fields[0].Field + ": " + err.Fields[0].Error
	}
	return ""
}

// IsValidationError reports whether the cause of err is a *ValidationError
// or a validator.ValidationErrors.
func IsValidationError(err error) bool {
	switch errors.Cause(err).(type) {
	case *ValidationError, validator.ValidationErrors:
		return true
	}
	return false
}

// StorageError reports a backing file that is missing, unreadable, malformed or unwritable.
type StorageError struct {
	Op   string // "load" | "save"
	Path string
	Err  error
}

func NewStorageError(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Err: err}
}

func (err StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", err.Op, err.Path, err.Err)
}

// IsStorageError reports whether the cause of err is a *StorageError.
func IsStorageError(err error) bool {
	_, ok := errors.Cause(err).(*StorageError)
	return ok
}
