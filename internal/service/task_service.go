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
	"github.com/taskboard/taskboard-api/internal/store"
)

// TaskPage is one page of tasks plus the total task count.
type TaskPage struct {
	Tasks []*domain.Task
	Total int
}

// TaskService provides task-related operations.
type TaskService interface {
	// ListTasks returns one page of tasks together with the total count.
	ListTasks(ctx context.Context, page store.PageRequest) (*TaskPage, error)

	// GetTask retrieves a task by its ID.
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// CreateTask creates a task on behalf of the acting user. An assignee,
	// when given, must exist.
	CreateTask(ctx context.Context, actorID uuid.UUID, intent domain.TaskCreateIntent) (*domain.Task, error)

	// UpdateTask merges the update intent into the stored task, enforcing
	// the assignment rule before persisting.
	UpdateTask(ctx context.Context, taskID uuid.UUID, intent domain.TaskUpdateIntent) (*domain.Task, error)

	// DeleteTask deletes a task. Only the creator may delete it.
	DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) error
}

// TaskServiceImpl implements the TaskService interface.
type TaskServiceImpl struct {
	taskStore store.TaskStore
	userStore store.UserStore
	notifier  Notifier
	db        *sql.DB
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	notifier Notifier,
	db *sql.DB,
	logger *slog.Logger,
) *TaskServiceImpl {
	return &TaskServiceImpl{
		taskStore: taskStore,
		userStore: userStore,
		notifier:  notifier,
		db:        db,
		logger:    logger.With("component", "task_service"),
	}
}

// Ensure TaskServiceImpl implements TaskService
var _ TaskService = (*TaskServiceImpl)(nil)

// ListTasks returns one page of tasks. The page query and the total count
// run concurrently.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, page store.PageRequest) (*TaskPage, error) {
	var (
		tasks []*domain.Task
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.taskStore.List(gctx, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.taskStore.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to list tasks",
			"error", err,
			"page", page.Page,
			"page_size", page.PageSize)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &TaskPage{Tasks: tasks, Total: total}, nil
}

// GetTask retrieves a task by its ID.
func (s *TaskServiceImpl) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			s.logger.Debug("task not found", "task_id", taskID)
		} else {
			s.logger.Error("failed to retrieve task",
				"error", err,
				"task_id", taskID)
		}
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}

	return task, nil
}

// CreateTask creates a task on behalf of the acting user. A referenced
// assignee must exist. A create notification is fired only when the task
// is created already assigned.
func (s *TaskServiceImpl) CreateTask(
	ctx context.Context,
	actorID uuid.UUID,
	intent domain.TaskCreateIntent,
) (*domain.Task, error) {
	var assignee *domain.User
	if intent.AssignedToID != nil {
		var err error
		assignee, err = s.userStore.GetByID(ctx, *intent.AssignedToID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				s.logger.Error("task creation referenced a missing assignee",
					"assigned_to_id", *intent.AssignedToID)
				return nil, fmt.Errorf("failed to create task: %w", ErrAssigneeNotFound)
			}
			s.logger.Error("failed to resolve assignee", "error", err)
			return nil, fmt.Errorf("failed to create task: %w", err)
		}
	}

	task, err := domain.NewTask(actorID, intent)
	if err != nil {
		s.logger.Debug("invalid task create intent", "error", err)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidEntity) {
			// The assignee passed the pre-check but was gone by insert time.
			s.logger.Error("task creation referenced a missing assignee",
				"assigned_to_id", intent.AssignedToID)
			return nil, fmt.Errorf("failed to create task: %w", ErrAssigneeNotFound)
		}
		s.logger.Error("failed to save task", "error", err)
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"created_by_id", actorID)

	if assignee != nil {
		s.dispatch(ctx, notification.ActionCreate, task, []string{assignee.Email})
	}

	return task, nil
}

// UpdateTask merges the intent into the stored task. The assignment rule
// is checked before anything is persisted. An update notification always
// fires, addressed to the current assignee and the creator.
func (s *TaskServiceImpl) UpdateTask(
	ctx context.Context,
	taskID uuid.UUID,
	intent domain.TaskUpdateIntent,
) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task for update: %w", err)
	}

	updated, err := task.ApplyUpdate(intent)
	if err != nil {
		s.logger.Debug("task update rejected",
			"error", err,
			"task_id", taskID)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).Update(ctx, &updated)
	})
	if err != nil {
		s.logger.Error("failed to update task",
			"error", err,
			"task_id", taskID)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("task updated", "task_id", taskID)
	s.dispatch(ctx, notification.ActionUpdate, updated, s.contactPoints(ctx, &updated))

	return &updated, nil
}

// DeleteTask deletes a task. Only the creator may delete; others get
// ErrNotTaskOwner. The delete notification carries the pre-deletion
// snapshot of the task.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) error {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to retrieve task for deletion: %w", err)
	}

	if task.CreatedByID != actorID {
		s.logger.Warn("task deletion denied",
			"task_id", taskID,
			"actor_id", actorID)
		return fmt.Errorf("failed to delete task: %w", ErrNotTaskOwner)
	}

	contactPoints := s.contactPoints(ctx, task)

	deleted, err := s.taskStore.Delete(ctx, taskID)
	if err != nil {
		s.logger.Error("failed to delete task",
			"error", err,
			"task_id", taskID)
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return fmt.Errorf("failed to delete task: %w", store.ErrTaskNotFound)
	}

	s.logger.Info("task deleted", "task_id", taskID)
	s.dispatch(ctx, notification.ActionDelete, task, contactPoints)

	return nil
}

// contactPoints resolves the email addresses interested in a task change:
// the assignee, when one exists, and the creator. Lookups run concurrently
// and failures degrade to fewer recipients rather than a failed mutation.
func (s *TaskServiceImpl) contactPoints(ctx context.Context, task *domain.Task) []string {
	var assigneeEmail, creatorEmail string

	g, gctx := errgroup.WithContext(ctx)
	if task.AssignedToID != nil {
		assignedToID := *task.AssignedToID
		g.Go(func() error {
			user, err := s.userStore.GetByID(gctx, assignedToID)
			if err != nil {
				s.logger.Warn("failed to resolve assignee for notification",
					"error", err,
					"task_id", task.ID)
				return nil
			}
			assigneeEmail = user.Email
			return nil
		})
	}
	g.Go(func() error {
		user, err := s.userStore.GetByID(gctx, task.CreatedByID)
		if err != nil {
			s.logger.Warn("failed to resolve creator for notification",
				"error", err,
				"task_id", task.ID)
			return nil
		}
		creatorEmail = user.Email
		return nil
	})
	_ = g.Wait()

	var contactPoints []string
	if assigneeEmail != "" {
		contactPoints = append(contactPoints, assigneeEmail)
	}
	if creatorEmail != "" && creatorEmail != assigneeEmail {
		contactPoints = append(contactPoints, creatorEmail)
	}
	return contactPoints
}

// dispatch fans a task event out to the notifier, logging failures.
func (s *TaskServiceImpl) dispatch(
	ctx context.Context,
	action notification.Action,
	subject any,
	contactPoints []string,
) {
	if s.notifier == nil {
		return
	}

	event, err := notification.NewEvent(action, notification.EntityTask, subject, contactPoints)
	if err != nil {
		s.logger.Error("failed to build notification event",
			"error", err,
			"action", action)
		return
	}
	if err := s.notifier.Dispatch(ctx, event); err != nil {
		s.logger.Warn("notification dispatch reported failures",
			"error", err,
			"action", action)
	}
}
