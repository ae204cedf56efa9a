package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrGraphNotFound indicates a graph was not found by the given identifier.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrInvalidGraph indicates a stored graph could not be decoded.
	ErrInvalidGraph = errors.New("invalid graph data")
)

// GraphError wraps graph-related errors with additional context.
type GraphError struct {
	Op      string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	GraphID string // Graph ID if applicable
	Err     error  // Underlying error
	Message string // Additional context message
}

func (e *GraphError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for graph %s: %s (%v)", e.Op, e.GraphID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for graph %s: %v", e.Op, e.GraphID, e.Err)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for graph errors.
func (e *GraphError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewGraphError creates a new graph error with context.
func NewGraphError(op, graphID string, err error) *GraphError {
	return &GraphError{
		Op:      op,
		GraphID: graphID,
		Err:     err,
	}
}

// IsGraphNotFound checks if an error indicates a graph was not found.
func IsGraphNotFound(err error) bool {
	return errors.Is(err, ErrGraphNotFound)
}

// IsInvalidGraph checks if an error indicates stored graph data could not be
// decoded.
func IsInvalidGraph(err error) bool {
	return errors.Is(err, ErrInvalidGraph)
}
