package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskboard/taskboard-api/internal/config"
	"github.com/taskboard/taskboard-api/internal/notification"
	"github.com/taskboard/taskboard-api/internal/platform/natspub"
	"github.com/taskboard/taskboard-api/internal/platform/postgres"
	"github.com/taskboard/taskboard-api/internal/service"
	"github.com/taskboard/taskboard-api/internal/service/auth"
	"github.com/taskboard/taskboard-api/internal/store"
)

// application holds the composed dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService       auth.JWTService
	passwordVerifier *auth.BcryptVerifier

	userService service.UserService
	taskService service.TaskService

	registry  *notification.Registry
	publisher *natspub.Publisher // nil when running on the log transport
}

// newApplication wires stores, services, auth and the notification
// registry together. Observers are registered here, at composition time.
func newApplication(cfg *config.Config, logg *slog.Logger) (*application, error) {
	db, err := setupAppDatabase(cfg, logg)
	if err != nil {
		return nil, err
	}

	userStore := postgres.NewPostgresUserStore(db)
	taskStore := postgres.NewPostgresTaskStore(db)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	passwordVerifier := auth.NewBcryptVerifier()

	app := &application{
		config:           cfg,
		logger:           logg,
		db:               db,
		userStore:        userStore,
		taskStore:        taskStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
	}

	var transport notification.Transport
	if cfg.Notification.NATSURL != "" {
		publisher, err := natspub.Connect(cfg.Notification.NATSURL, cfg.Notification.Subject, logg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect notification transport: %w", err)
		}
		app.publisher = publisher
		transport = publisher
	} else {
		logg.Warn("no NATS URL configured, notifications will only be logged")
		transport = natspub.NewLogTransport(logg)
	}

	registry := notification.NewRegistry(logg)
	registry.Register(notification.NewEmailObserver(transport, logg))
	app.registry = registry

	app.userService = service.NewUserService(userStore, passwordVerifier, registry, db, logg)
	app.taskService = service.NewTaskService(taskStore, userStore, registry, db, logg)

	return app, nil
}

// tokenLifetime returns the configured access token lifetime.
func (app *application) tokenLifetime() time.Duration {
	return time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
}

// cleanup releases held resources during shutdown.
func (app *application) cleanup() {
	if app.publisher != nil {
		app.publisher.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
