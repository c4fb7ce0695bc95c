package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/service"
	"github.com/taskboard/taskboard-api/internal/service/auth"
	"github.com/taskboard/taskboard-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid token", err: auth.ErrInvalidToken, want: http.StatusUnauthorized},
		{name: "expired token", err: auth.ErrExpiredToken, want: http.StatusUnauthorized},
		{name: "bad credentials", err: auth.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "not task owner", err: service.ErrNotTaskOwner, want: http.StatusForbidden},
		{name: "user not found", err: store.ErrUserNotFound, want: http.StatusNotFound},
		{name: "task not found", err: store.ErrTaskNotFound, want: http.StatusNotFound},
		{name: "unassigned status advance", err: domain.ErrUnassignedStatus, want: http.StatusBadRequest},
		{name: "invalid status", err: domain.ErrInvalidTaskStatus, want: http.StatusBadRequest},
		{
			name: "field validation error",
			err:  domain.NewValidationError("title", "is required", domain.ErrEmptyTaskTitle),
			want: http.StatusBadRequest,
		},
		{
			name: "empty title rejected on update",
			err:  fmt.Errorf("failed to update task: %w", domain.NewValidationError("title", "cannot be empty", domain.ErrEmptyTaskTitle)),
			want: http.StatusBadRequest,
		},
		{
			name: "wrapped sentinel keeps its mapping",
			err:  fmt.Errorf("failed to delete task: %w", service.ErrNotTaskOwner),
			want: http.StatusForbidden,
		},
		// Create-path quirks: these stay internal failures.
		{name: "duplicate email", err: store.ErrEmailExists, want: http.StatusInternalServerError},
		{name: "missing assignee", err: service.ErrAssigneeNotFound, want: http.StatusInternalServerError},
		{name: "unknown error", err: errors.New("pq: out of disk"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessageNeverEchoesInternals(t *testing.T) {
	raw := errors.New("dial tcp 10.0.0.5:5432: connection refused password=hunter2")
	msg := GetSafeErrorMessage(fmt.Errorf("failed to list users: %w", raw))
	assert.Equal(t, "An unexpected error occurred", msg)
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "An unexpected error occurred"},
		{name: "user not found", err: fmt.Errorf("wrap: %w", store.ErrUserNotFound), want: "User not found"},
		{name: "task not found", err: store.ErrTaskNotFound, want: "Task not found"},
		{name: "not owner", err: service.ErrNotTaskOwner, want: "You do not own this task"},
		{name: "bad credentials", err: auth.ErrInvalidCredentials, want: "Invalid credentials"},
		{
			name: "unassigned advance",
			err:  fmt.Errorf("failed to update task: %w", domain.ErrUnassignedStatus),
			want: "A task must be assigned before its status can advance",
		},
		{
			name: "validation error names the field",
			err:  domain.NewValidationError("email", "has invalid format", domain.ErrInvalidEmail),
			want: "Invalid email: has invalid format",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	err := errors.New(
		"Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag")
	assert.Equal(t, "Invalid Email: this field is required", SanitizeValidationError(err))

	assert.Equal(t, "Invalid request data", SanitizeValidationError(errors.New("something else")))
}
