package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskboard/taskboard-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns one page of users matching the filters, ordered by
	// creation time. List and Count must apply identical predicates.
	List(ctx context.Context, page PageRequest, filters UserFilters) ([]*domain.User, error)

	// Count returns the total number of users matching the filters.
	Count(ctx context.Context, filters UserFilters) (int, error)

	// Update modifies an existing user's details.
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user by ID. It reports whether a row was removed;
	// deleting an absent ID is not an error.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// WithTx returns a UserStore that runs against the given transaction.
	WithTx(tx *sql.Tx) UserStore
}
