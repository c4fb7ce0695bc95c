package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskboard/taskboard-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrInvalidEntity if a referenced user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns one page of tasks ordered by creation time.
	List(ctx context.Context, page PageRequest) ([]*domain.Task, error)

	// Count returns the total number of tasks.
	Count(ctx context.Context) (int, error)

	// Update replaces an existing task's mutable fields.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task by ID. It reports whether a row was removed;
	// deleting an absent ID is not an error.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// WithTx returns a TaskStore that runs against the given transaction.
	WithTx(tx *sql.Tx) TaskStore
}
