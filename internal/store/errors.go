package store

import (
	"errors"
	"fmt"
	"strings"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is the generic version of the entity-specific not found errors
	// (ErrThingNotFound, ErrTaskNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or is in a state the operation does not accept.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrInvalidArgument is returned when a caller passes an argument the
	// store cannot act on, such as a zero ID on update.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorageUnavailable is returned for connectivity and operational
	// failures of the underlying database. Callers may retry later.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrPersistence is returned when a write is rejected by the database
	// for reasons other than availability, e.g. a constraint violation.
	ErrPersistence = errors.New("persistence failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrThingNotFound indicates that the requested thing does not exist in the store.
	ErrThingNotFound = fmt.Errorf("%w: thing", ErrNotFound)

	// ErrTaskNotFound indicates that no task with the given ID was ever recorded.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsUnavailableError reports whether err means the database could not be reached
// or could not serve the operation.
func IsUnavailableError(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// closedDBMessage is the text database/sql uses for calls on a closed *sql.DB.
// The package does not export the error value.
const closedDBMessage = "sql: database is closed"

// IsClosedError reports whether err came from using a *sql.DB after Close.
func IsClosedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), closedDBMessage)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "thing", "task")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
