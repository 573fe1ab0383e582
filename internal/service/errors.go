package service

import (
	"errors"
	"fmt"
)

// Common service errors. Callers check for them with errors.Is; the API layer
// maps each to an HTTP status.
var (
	// ErrThingNotFound indicates no thing exists with the requested id.
	// API layer should map this to HTTP 404 Not Found.
	ErrThingNotFound = errors.New("thing not found")

	// ErrIntegrityViolation indicates an update targeted a thing that has no
	// id or no longer exists. The store cause stays in the chain.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrInvalidTaskID indicates a task id that could never have been issued.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidTaskID = errors.New("invalid task id")

	// ErrTaskNotFound indicates the task id was never recorded.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")
)

// ServiceError wraps an unexpected failure with the operation that hit it.
type ServiceError struct {
	// Service names the service that failed (e.g., "thing", "mutation")
	Service string
	// Operation is the operation that failed (e.g., "get_thing")
	Operation string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Operation)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err. Service sentinels are returned unwrapped.
func NewServiceError(service, operation string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		ErrThingNotFound, ErrIntegrityViolation, ErrInvalidTaskID, ErrTaskNotFound,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &ServiceError{Service: service, Operation: operation, Err: err}
}
