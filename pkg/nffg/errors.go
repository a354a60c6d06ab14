package nffg

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound = errors.New("node not found")
	ErrPortNotFound = errors.New("port not found")
	ErrLinkNotFound = errors.New("link not found")
	ErrDuplicateID  = errors.New("duplicate id")
)

// ModelError provides structured error information for graph operations.
type ModelError struct {
	Op     string // operation that failed (e.g., "AddLink")
	Entity string // entity kind (e.g., "port")
	ID     string // entity id, if applicable
	Cause  error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ModelError) Unwrap() error { return e.Cause }

func modelErr(op, entity, id string, cause error) *ModelError {
	return &ModelError{Op: op, Entity: entity, ID: id, Cause: cause}
}
