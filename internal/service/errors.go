// Package service provides application-level services for managing users and tasks.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped with context via fmt.Errorf("...: %w", err)
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotTaskOwner indicates a task is owned by a different user than the
	// one making the request. Only the creator may delete a task.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotTaskOwner = errors.New("task is owned by another user")

	// ErrAssigneeNotFound indicates the assignee referenced during task
	// creation does not exist. Existing clients depend on this surfacing as
	// an internal failure rather than a validation failure.
	ErrAssigneeNotFound = errors.New("assigned user does not exist")
)
