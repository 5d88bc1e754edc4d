// Package apperrors holds the error kinds shared by the registration core.
package apperrors

import (
	"errors"
	"fmt"
)

// Kinds. Every failure the core reports unwraps to exactly one of these.
var (
	ErrNotFound                  = errors.New("not found")
	ErrAlreadyEnrolled           = errors.New("already enrolled")
	ErrNotEnrolled               = errors.New("not enrolled")
	ErrDuplicateCourseEnrollment = errors.New("already enrolled in another offering of this course")
	ErrSameOffering              = errors.New("old and new offering are the same")
	ErrCapacityExceeded          = errors.New("offering is full")
	ErrConflict                  = errors.New("conflict")
	ErrValidation                = errors.New("validation failed")
	ErrStorageFailure            = errors.New("storage failure")
)

// Not found
var (
	ErrStudentNotFound  = fmt.Errorf("student %w", ErrNotFound)
	ErrFacultyNotFound  = fmt.Errorf("faculty %w", ErrNotFound)
	ErrCourseNotFound   = fmt.Errorf("course %w", ErrNotFound)
	ErrOfferingNotFound = fmt.Errorf("offering %w", ErrNotFound)
	ErrAccountNotFound  = fmt.Errorf("account %w", ErrNotFound)
)

// Conflicts
var (
	ErrAlreadyAssigned         = fmt.Errorf("faculty already teaches this course: %w", ErrConflict)
	ErrIDTaken                 = fmt.Errorf("user id already exists: %w", ErrConflict)
	ErrCapacityBelowEnrollment = fmt.Errorf("capacity below current enrollment: %w", ErrConflict)
	ErrSequenceBackwards       = fmt.Errorf("sequence can not move backwards: %w", ErrConflict)
	ErrCascadeIncomplete       = fmt.Errorf("enrollments survived offering delete: %w", ErrStorageFailure)
)

var kinds = []error{
	ErrNotFound,
	ErrAlreadyEnrolled,
	ErrNotEnrolled,
	ErrDuplicateCourseEnrollment,
	ErrSameOffering,
	ErrCapacityExceeded,
	ErrConflict,
	ErrValidation,
	ErrStorageFailure,
}

// Kind returns the kind err unwraps to, or nil for foreign errors.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsExpected reports whether err is a validation outcome rather than a fault.
func IsExpected(err error) bool {
	k := Kind(err)
	return k != nil && k != ErrStorageFailure
}

// CustomError attaches a human readable message to a kind.
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured context that surfaces in API error bodies.
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// New creates a CustomError of the given kind with a formatted message.
func New(kind error, format string, args ...interface{}) *CustomError {
	return &CustomError{
		Err:     kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// StorageFailure wraps a persistence fault so callers can match ErrStorageFailure
// while keeping the driver error in the chain.
func StorageFailure(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorageFailure, err))
}

var codes = map[error]string{
	ErrNotFound:                  "not_found",
	ErrAlreadyEnrolled:           "already_enrolled",
	ErrNotEnrolled:               "not_enrolled",
	ErrDuplicateCourseEnrollment: "duplicate_course_enrollment",
	ErrSameOffering:              "same_offering",
	ErrCapacityExceeded:          "capacity_exceeded",
	ErrConflict:                  "conflict",
	ErrValidation:                "validation",
	ErrStorageFailure:            "storage_failure",
}

// Code is a stable short name for the kind of err, "ok" for nil and
// "internal" for errors without a kind.
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	if c, ok := codes[Kind(err)]; ok {
		return c
	}
	return "internal"
}
