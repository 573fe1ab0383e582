package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{
			name:     "wrapped generic error",
			err:      fmt.Errorf("failed to do something: %w", errors.New("some error")),
			expected: false,
		},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "wrapped ErrNotFound", err: fmt.Errorf("failed: %w", ErrNotFound), expected: true},
		{name: "ErrThingNotFound", err: ErrThingNotFound, expected: true},
		{
			name:     "wrapped ErrThingNotFound",
			err:      fmt.Errorf("failed to find thing: %w", ErrThingNotFound),
			expected: true,
		},
		{name: "ErrTaskNotFound", err: ErrTaskNotFound, expected: true},
		{name: "unavailable", err: ErrStorageUnavailable, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrDuplicate", err: ErrDuplicate, expected: true},
		{name: "wrapped ErrDuplicate", err: fmt.Errorf("failed to create: %w", ErrDuplicate), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsDuplicateError(tt.err); got != tt.expected {
				t.Errorf("IsDuplicateError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsUnavailableError(t *testing.T) {
	t.Parallel()

	wrapped := NewStoreError("thing", "get", "query failed", ErrStorageUnavailable)
	if !IsUnavailableError(wrapped) {
		t.Error("expected StoreError wrapping ErrStorageUnavailable to be unavailable")
	}
	if IsUnavailableError(ErrPersistence) {
		t.Error("ErrPersistence must not be reported as unavailable")
	}
}

func TestThingNotFoundIsNotTaskNotFound(t *testing.T) {
	t.Parallel()

	if errors.Is(ErrThingNotFound, ErrTaskNotFound) {
		t.Error("ErrThingNotFound must not match ErrTaskNotFound")
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("thing", "create", "database error", originalErr)

	expectedErrorString := "create operation on thing failed: database error: database connection failed"
	if got := storeErr.Error(); got != expectedErrorString {
		t.Errorf("StoreError.Error() = %v, want %v", got, expectedErrorString)
	}

	if got := storeErr.Unwrap(); !errors.Is(got, originalErr) {
		t.Errorf("StoreError.Unwrap() not returning original error")
	}

	if !errors.Is(storeErr, originalErr) {
		t.Errorf("errors.Is() not recognizing the wrapped error")
	}

	bare := NewStoreError("task", "update", "no rows", nil)
	if got := bare.Error(); got != "update operation on task failed: no rows" {
		t.Errorf("StoreError.Error() without cause = %v", got)
	}
}

func TestIsClosedError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "closed database", err: errors.New("sql: database is closed"), expected: true},
		{
			name:     "wrapped closed database",
			err:      fmt.Errorf("query things: %w", errors.New("sql: database is closed")),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsClosedError(tt.err); got != tt.expected {
				t.Errorf("IsClosedError() = %v, want %v", got, tt.expected)
			}
		})
	}
}
