package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/notification"
	"github.com/taskboard/taskboard-api/internal/service/auth"
	"github.com/taskboard/taskboard-api/internal/store"
)

// Notifier dispatches mutation events to registered observers.
// Satisfied by *notification.Registry.
type Notifier interface {
	Dispatch(ctx context.Context, event notification.Event) error
}

// UserPage is one page of users plus the unfiltered-by-page total.
type UserPage struct {
	Users []*domain.User
	Total int
}

// UserService provides user-related operations.
type UserService interface {
	// ListUsers returns one page of users matching the filters, together
	// with the total match count for pagination.
	ListUsers(ctx context.Context, page store.PageRequest, filters store.UserFilters) (*UserPage, error)

	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetUserByEmail retrieves a user by their email address.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// CreateUser creates a new user. The credential secret is generated
	// server-side and stored only as a bcrypt hash.
	CreateUser(ctx context.Context, intent domain.UserCreateIntent) (*domain.User, error)

	// UpdateUser applies the update intent to an existing user.
	UpdateUser(ctx context.Context, userID uuid.UUID, intent domain.UserUpdateIntent) (*domain.User, error)

	// DeleteUser deletes a user by their ID.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	notifier  Notifier
	db        *sql.DB
	logger    *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	notifier Notifier,
	db *sql.DB,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		notifier:  notifier,
		db:        db,
		logger:    logger.With("component", "user_service"),
	}
}

// Ensure UserServiceImpl implements UserService
var _ UserService = (*UserServiceImpl)(nil)

// ListUsers returns one page of users matching the filters. The page query
// and the total count run concurrently.
func (s *UserServiceImpl) ListUsers(
	ctx context.Context,
	page store.PageRequest,
	filters store.UserFilters,
) (*UserPage, error) {
	var (
		users []*domain.User
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.userStore.List(gctx, page, filters)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.userStore.Count(gctx, filters)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to list users",
			"error", err,
			"page", page.Page,
			"page_size", page.PageSize)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &UserPage{Users: users, Total: total}, nil
}

// GetUser retrieves a user by their ID.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("user not found", "user_id", userID)
		} else {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *UserServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("user not found by email")
		} else {
			s.logger.Error("failed to retrieve user by email", "error", err)
		}
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}

	return user, nil
}

// CreateUser creates a new user inside a transaction and fires a create
// notification addressed to the new user's email. Notification failures
// are logged, never returned.
func (s *UserServiceImpl) CreateUser(
	ctx context.Context,
	intent domain.UserCreateIntent,
) (*domain.User, error) {
	secret, err := auth.GenerateSecret()
	if err != nil {
		s.logger.Error("failed to generate credential secret", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	hashed, err := s.hasher.Hash(secret)
	if err != nil {
		s.logger.Error("failed to hash credential secret", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user, err := domain.NewUser(intent, hashed)
	if err != nil {
		s.logger.Debug("invalid user create intent", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to create user with existing email")
		} else {
			s.logger.Error("failed to save user", "error", err)
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID)
	s.dispatch(ctx, notification.ActionCreate, notification.EntityUser, user, []string{user.Email})

	return user, nil
}

// UpdateUser applies the update intent to an existing user. Email is
// immutable; only mutable fields change.
func (s *UserServiceImpl) UpdateUser(
	ctx context.Context,
	userID uuid.UUID,
	intent domain.UserUpdateIntent,
) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user for update: %w", err)
	}

	updated := user.ApplyUpdate(intent)

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Update(ctx, &updated)
	})
	if err != nil {
		s.logger.Error("failed to update user",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user updated", "user_id", userID)
	return &updated, nil
}

// DeleteUser deletes a user by their ID. Deleting an absent user returns
// store.ErrUserNotFound.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	deleted, err := s.userStore.Delete(ctx, userID)
	if err != nil {
		s.logger.Error("failed to delete user",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		s.logger.Debug("user not found for deletion", "user_id", userID)
		return fmt.Errorf("failed to delete user: %w", store.ErrUserNotFound)
	}

	s.logger.Info("user deleted", "user_id", userID)
	return nil
}

// dispatch fans an event out to the notifier. Observer failures are
// logged; a completed mutation never fails because of them.
func (s *UserServiceImpl) dispatch(
	ctx context.Context,
	action notification.Action,
	entity notification.Entity,
	subject any,
	contactPoints []string,
) {
	if s.notifier == nil {
		return
	}

	event, err := notification.NewEvent(action, entity, subject, contactPoints)
	if err != nil {
		s.logger.Error("failed to build notification event",
			"error", err,
			"action", action,
			"entity", entity)
		return
	}
	if err := s.notifier.Dispatch(ctx, event); err != nil {
		s.logger.Warn("notification dispatch reported failures",
			"error", err,
			"action", action,
			"entity", entity)
	}
}
