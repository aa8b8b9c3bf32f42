// Package services defines the business logic of the employee API.
// This file centralizes the service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"strings"
)

var (
	// ErrEmployeeNotFound indicates that no employee has the requested id.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrEmailTaken is returned when a create or update would give two
	// employees the same email.
	ErrEmailTaken = errors.New("employee with this email already exists")

	// ErrStorage matches every *StorageError via errors.Is.
	ErrStorage = errors.New("storage failure")
)

// StorageError wraps an unexpected persistence failure. The cause is kept for
// logging; it must never be shown to API clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "employee store: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorage) true for any StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// ValidationError lists the required fields that were missing or empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}
