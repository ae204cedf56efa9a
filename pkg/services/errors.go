// Package services implements the business operations behind the API:
// building and editing graphs, moving them across process boundaries as
// documents, and requesting runs. Handlers stay thin; everything a handler
// needs to decide a status code is expressed here as a sentinel error.
package services

import (
	"errors"
	"fmt"

	"github.com/ideonhq/ideon/pkg/persistence"
	"github.com/ideonhq/ideon/pkg/workflow"
)

var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidGraphDocument = errors.New("invalid graph document")

	// Not-found errors (404 Not Found). The persistence and editor sentinels
	// are re-exported so handlers only ever match against this package.
	ErrGraphNotFound = persistence.ErrGraphNotFound
	ErrNodeNotFound  = workflow.ErrNodeNotFound

	// Run-state conflicts (409 Conflict).
	ErrRunInProgress = errors.New("a run is already in progress for this graph")
	ErrNoActiveRun   = errors.New("no active run for this graph")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidGraphDocument)
}

// IsNotFoundError checks if an error means the target resource does not exist (HTTP 404).
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrGraphNotFound) ||
		errors.Is(err, ErrNodeNotFound)
}

// IsConflictError checks if an error is a run-state conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrRunInProgress) ||
		errors.Is(err, ErrNoActiveRun)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
