package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/taskboard-api/internal/api"
	"github.com/taskboard/taskboard-api/internal/api/middleware"
	"github.com/taskboard/taskboard-api/internal/config"
	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/notification"
	"github.com/taskboard/taskboard-api/internal/service"
	"github.com/taskboard/taskboard-api/internal/service/auth"
	"github.com/taskboard/taskboard-api/internal/store"
)

// stubDriver lets store.RunInTransaction begin and commit transactions
// without a database; the in-memory stores ignore the handle.
type stubDriver struct{}

func (stubDriver) Open(name string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(query string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (stubConn) Close() error                              { return nil }
func (stubConn) Begin() (driver.Tx, error)                 { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubDriver sync.Once

func newStubDB() *sql.DB {
	registerStubDriver.Do(func() { sql.Register("apistub", stubDriver{}) })
	db, err := sql.Open("apistub", "")
	if err != nil {
		panic(err)
	}
	return db
}

// memUserStore is an in-memory store.UserStore for handler tests.
type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	order []uuid.UUID

	// onDelete mimics the schema's FK cascade from tasks to users.
	onDelete func(userID uuid.UUID)
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *memUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	copied := *user
	s.users[user.ID] = &copied
	s.order = append(s.order, user.ID)
	return nil
}

func (s *memUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *memUserStore) matches(user *domain.User, filters store.UserFilters) bool {
	if filters.Name != "" && !strings.Contains(strings.ToLower(user.Name), strings.ToLower(filters.Name)) {
		return false
	}
	if filters.Email != "" && !strings.Contains(strings.ToLower(user.Email), strings.ToLower(filters.Email)) {
		return false
	}
	return true
}

func (s *memUserStore) List(
	ctx context.Context,
	page store.PageRequest,
	filters store.UserFilters,
) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.User
	for _, id := range s.order {
		user := s.users[id]
		if user == nil || !s.matches(user, filters) {
			continue
		}
		copied := *user
		matched = append(matched, &copied)
	}
	offset := page.Offset()
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + page.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *memUserStore) Count(ctx context.Context, filters store.UserFilters) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, user := range s.users {
		if s.matches(user, filters) {
			count++
		}
	}
	return count, nil
}

func (s *memUserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memUserStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	if _, ok := s.users[id]; !ok {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.users, id)
	s.mu.Unlock()
	if s.onDelete != nil {
		s.onDelete(id)
	}
	return true, nil
}

func (s *memUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// memTaskStore is an in-memory store.TaskStore for handler tests.
type memTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
	order []uuid.UUID
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *memTaskStore) Create(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	s.order = append(s.order, task.ID)
	return nil
}

func (s *memTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *memTaskStore) List(ctx context.Context, page store.PageRequest) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*domain.Task
	for _, id := range s.order {
		if task := s.tasks[id]; task != nil {
			copied := *task
			all = append(all, &copied)
		}
	}
	offset := page.Offset()
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *memTaskStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks), nil
}

func (s *memTaskStore) Update(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *memTaskStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	for i, ordered := range s.order {
		if ordered == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// removeForUser drops every task created by or assigned to the user,
// matching the ON DELETE CASCADE behavior of both foreign keys.
func (s *memTaskStore) removeForUser(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.order[:0]
	for _, id := range s.order {
		task := s.tasks[id]
		if task == nil {
			continue
		}
		if task.CreatedByID == userID ||
			(task.AssignedToID != nil && *task.AssignedToID == userID) {
			delete(s.tasks, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

func (s *memTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return s }

// memTransport captures published notification payloads.
type memTransport struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (t *memTransport) Publish(ctx context.Context, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.payloads = append(t.payloads, append([]byte(nil), payload...))
	return nil
}

func (t *memTransport) Payloads() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]byte(nil), t.payloads...)
}

// testServer wires the full HTTP stack over in-memory stores.
type testServer struct {
	router     *chi.Mux
	users      *memUserStore
	tasks      *memTaskStore
	transport  *memTransport
	jwtService auth.JWTService
	hasher     auth.PasswordHasher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := newMemUserStore()
	tasks := newMemTaskStore()
	users.onDelete = tasks.removeForUser
	db := newStubDB()

	transport := &memTransport{}
	registry := notification.NewRegistry(log)
	registry.Register(notification.NewEmailObserver(transport, log))

	hasher := auth.NewBcryptVerifier()
	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	userService := service.NewUserService(users, hasher, registry, db, log)
	taskService := service.NewTaskService(tasks, users, registry, db, log)

	authHandler := api.NewAuthHandler(userService, jwtService, hasher, time.Hour)
	userHandler := api.NewUserHandler(userService)
	taskHandler := api.NewTaskHandler(taskService)
	authMw := middleware.NewAuthMiddleware(jwtService)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Get("/{id}", userHandler.Get)
			r.Put("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Delete)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(authMw.Authenticate)
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})
	})

	return &testServer{
		router:     r,
		users:      users,
		tasks:      tasks,
		transport:  transport,
		jwtService: jwtService,
		hasher:     hasher,
	}
}

// do performs a request against the in-process router.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, r)
	return w
}

// seedUser inserts a user with a known password directly into the store
// and returns it with a valid token.
func (ts *testServer) seedUser(t *testing.T, name, email, password string) (*domain.User, string) {
	t.Helper()

	hash, err := ts.hasher.Hash(password)
	require.NoError(t, err)

	intent, err := domain.NewUserCreateIntent(name, email)
	require.NoError(t, err)
	user, err := domain.NewUser(intent, hash)
	require.NoError(t, err)
	require.NoError(t, ts.users.Create(context.Background(), user))

	token, err := ts.jwtService.GenerateToken(context.Background(), user.ID)
	require.NoError(t, err)
	return user, token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
