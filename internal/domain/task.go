package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	ErrEmptyTaskID          = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle       = errors.New("task title cannot be empty")
	ErrEmptyTaskDescription = errors.New("task description cannot be empty")
	ErrEmptyTaskCreator     = errors.New("task creator ID cannot be empty")
	ErrInvalidTaskStatus    = errors.New("invalid task status")

	// ErrUnassignedStatus is returned when a task would hold a non-pending
	// status while having no assignee. The invariant is checked atomically
	// after every update is computed and on creation.
	ErrUnassignedStatus = errors.New("task status cannot advance past pending while unassigned")
)

// TaskStatus enumerates the lifecycle states of a task.
type TaskStatus string

// Valid task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// ValidTaskStatuses lists the accepted status values, used in
// client-facing validation messages.
var ValidTaskStatuses = []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted}

// ParseTaskStatus converts a raw string into a TaskStatus.
// The error message enumerates the accepted values.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	switch TaskStatus(raw) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return TaskStatus(raw), nil
	}
	return "", NewValidationError(
		"status",
		fmt.Sprintf("must be one of: %s, %s, %s", TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted),
		ErrInvalidTaskStatus,
	)
}

// Task represents a unit of work created by a user and optionally
// assigned to another user.
type Task struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       TaskStatus `json:"status"`
	CreatedByID  uuid.UUID  `json:"created_by_id"`
	AssignedToID *uuid.UUID `json:"assigned_to_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// OptionalID is a three-state wrapper distinguishing an omitted field from
// an explicit clear in update payloads. The zero value is Unset.
type OptionalID struct {
	set   bool
	clear bool
	id    uuid.UUID
}

// SetID returns an OptionalID carrying a value.
func SetID(id uuid.UUID) OptionalID {
	return OptionalID{set: true, id: id}
}

// ClearID returns an OptionalID that explicitly clears the field.
func ClearID() OptionalID {
	return OptionalID{set: true, clear: true}
}

// IsSet reports whether the field was present in the payload at all.
func (o OptionalID) IsSet() bool { return o.set }

// IsClear reports whether the field was present and explicitly null/empty.
func (o OptionalID) IsClear() bool { return o.set && o.clear }

// Value returns the carried ID. Only meaningful when IsSet and not IsClear.
func (o OptionalID) Value() uuid.UUID { return o.id }

// UnmarshalJSON implements the omitted-vs-cleared contract: a JSON null or
// empty string clears the field, a UUID string sets it. The surrounding
// struct must use a plain OptionalID field, not a pointer: the decoder
// hands null to the value's unmarshaler, while absence leaves the zero
// (Unset) value untouched.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*o = ClearID()
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*o = ClearID()
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	*o = SetID(id)
	return nil
}

// TaskCreateIntent is a validated, immutable representation of a requested
// task creation.
type TaskCreateIntent struct {
	Title        string
	Description  string
	AssignedToID *uuid.UUID
}

// NewTaskCreateIntent validates the raw input and returns an intent.
// Whether an assignee actually exists is the service's concern; the
// intent only guarantees format and required fields.
func NewTaskCreateIntent(title, description string, assignedToID *uuid.UUID) (TaskCreateIntent, error) {
	if title == "" {
		return TaskCreateIntent{}, NewValidationError("title", "is required", ErrEmptyTaskTitle)
	}
	if description == "" {
		return TaskCreateIntent{}, NewValidationError("description", "is required", ErrEmptyTaskDescription)
	}
	return TaskCreateIntent{Title: title, Description: description, AssignedToID: assignedToID}, nil
}

// TaskUpdateIntent is a validated representation of a requested task update.
// All fields are optional; absent fields preserve the existing values.
// AssignedTo follows the Unset | Clear | Value contract.
type TaskUpdateIntent struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	AssignedTo  OptionalID
}

// NewTask creates a Task from a validated intent with the creator taken
// from the authenticated actor. Status defaults to pending; the assignment
// invariant is enforced because a fresh task is always pending.
func NewTask(createdByID uuid.UUID, intent TaskCreateIntent) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:           uuid.New(),
		Title:        intent.Title,
		Description:  intent.Description,
		Status:       TaskStatusPending,
		CreatedByID:  createdByID,
		AssignedToID: intent.AssignedToID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// ApplyUpdate computes the next task state from the existing state and a
// validated update intent. Pure: the receiver is not mutated and nothing
// is persisted here. Fields absent from the intent are preserved;
// CreatedByID and CreatedAt carry over unchanged; UpdatedAt is refreshed.
// After the merge the cross-field invariant is checked: a non-pending
// status with no assignee rejects the whole update.
func (t Task) ApplyUpdate(intent TaskUpdateIntent) (Task, error) {
	next := t
	if intent.Title != nil {
		next.Title = *intent.Title
	}
	if intent.Description != nil {
		next.Description = *intent.Description
	}
	if intent.Status != nil {
		next.Status = *intent.Status
	}
	if intent.AssignedTo.IsSet() {
		if intent.AssignedTo.IsClear() {
			next.AssignedToID = nil
		} else {
			id := intent.AssignedTo.Value()
			next.AssignedToID = &id
		}
	}
	next.UpdatedAt = time.Now().UTC()

	if err := next.Validate(); err != nil {
		return Task{}, err
	}

	return next, nil
}

// Validate checks field-level constraints and the assignment invariant.
// Failures are ValidationErrors wrapping the field sentinel, so callers
// can match the sentinel and the API layer can name the field.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrEmptyTaskID)
	}
	if t.Title == "" {
		return NewValidationError("title", "cannot be empty", ErrEmptyTaskTitle)
	}
	if t.Description == "" {
		return NewValidationError("description", "cannot be empty", ErrEmptyTaskDescription)
	}
	if t.CreatedByID == uuid.Nil {
		return NewValidationError("created_by_id", "is required", ErrEmptyTaskCreator)
	}
	switch t.Status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
	default:
		return NewValidationError("status", "must be one of: pending, in_progress, completed", ErrInvalidTaskStatus)
	}
	if t.Status != TaskStatusPending && t.AssignedToID == nil {
		return NewValidationError("assigned_to_id", "is required when status is not pending", ErrUnassignedStatus)
	}
	return nil
}
