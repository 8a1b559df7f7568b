package repositories

import (
	"errors"
	"fmt"
)

// Common repository errors
var (
	// ErrNotConfigured is returned when a store is used without its endpoint or credentials
	ErrNotConfigured = errors.New("store not configured")

	// ErrInvalidQuery is returned when a query is built from an unsupported field or empty input
	ErrInvalidQuery = errors.New("invalid query")

	// ErrConnection is returned when the store cannot be reached
	ErrConnection = errors.New("store connection error")

	// ErrRemote is returned when the store rejects a request
	ErrRemote = errors.New("store request rejected")

	// ErrUnsupported is returned when an unsupported driver or operation is requested
	ErrUnsupported = errors.New("unsupported operation")
)

// RepositoryError represents a repository-specific error with additional context
type RepositoryError struct {
	Op      string // Operation that failed
	Entity  string // Table name
	Err     error  // Underlying error
	Message string // Human-readable message
}

// Error implements the error interface
func (e *RepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("%s %s operation failed: %v", e.Entity, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new repository error
func NewRepositoryError(op, entity string, err error) *RepositoryError {
	return &RepositoryError{
		Op:     op,
		Entity: entity,
		Err:    err,
	}
}

// RemoteError wraps a rejection reported by the store itself. The store's
// message is surfaced as-is so callers see what the backend said.
func RemoteError(op, entity string, status int, message string) *RepositoryError {
	if message == "" {
		message = fmt.Sprintf("%s %s request failed with status %d", entity, op, status)
	}
	return &RepositoryError{
		Op:      op,
		Entity:  entity,
		Err:     fmt.Errorf("%w: status %d", ErrRemote, status),
		Message: message,
	}
}

// NotConfiguredError reports a missing setting at the point of use
func NotConfiguredError(op, entity, setting string) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Entity:  entity,
		Err:     ErrNotConfigured,
		Message: fmt.Sprintf("%s is not configured", setting),
	}
}

// InvalidQueryError reports a query that cannot be built
func InvalidQueryError(op, entity, reason string) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Entity:  entity,
		Err:     ErrInvalidQuery,
		Message: fmt.Sprintf("invalid %s query on %s: %s", op, entity, reason),
	}
}

// ConnectionError creates a "connection" repository error
func ConnectionError(op, entity string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Entity:  entity,
		Err:     fmt.Errorf("%w: %v", ErrConnection, err),
		Message: fmt.Sprintf("%s connection failed: %v", entity, err),
	}
}

// IsNotConfigured checks if an error is a "not configured" error
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsInvalidQuery checks if an error is an "invalid query" error
func IsInvalidQuery(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}

// IsConnection checks if an error is a "connection" error
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsRemote checks if an error was reported by the store
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemote)
}
