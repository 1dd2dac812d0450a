package main

import (
	"database/sql"
	"log/slog"

	"github.com/taskline/taskline-api/internal/config"
	"github.com/taskline/taskline-api/internal/consumer"
	"github.com/taskline/taskline-api/internal/events"
	"github.com/taskline/taskline-api/internal/platform/broker"
	"github.com/taskline/taskline-api/internal/platform/postgres"
	"github.com/taskline/taskline-api/internal/service"
	"github.com/taskline/taskline-api/internal/service/auth"
	"github.com/taskline/taskline-api/internal/store"
)

// application holds the shared application dependencies so wiring happens
// in one place and cleanup can release them in order.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore  store.UserStore
	taskStore  store.TaskStore
	auditStore store.AuditStore
	transactor store.Transactor

	// Platform
	brokerClient *broker.Client
	publisher    *events.Publisher

	// Services
	jwtService       auth.JWTService
	userService      *service.UserService
	taskService      *service.TaskService
	assistantService *service.AssistantService

	// Consumers
	auditConsumer      *consumer.AuditConsumer
	reminderConsumer   *consumer.ReminderConsumer
	recurrenceConsumer *consumer.RecurrenceConsumer
}

// newApplication wires the full dependency graph from the bottom up:
// stores over the database, the broker client and publisher over the
// sidecar, services over both, and the consumers that close the loop.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) *application {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.userStore = postgres.NewPostgresUserStore(db)
	app.taskStore = postgres.NewPostgresTaskStore(db)
	app.auditStore = postgres.NewPostgresAuditStore(db)
	app.transactor = store.NewDBTransactor(db)

	app.brokerClient = broker.NewClient(cfg.Broker, logger)
	app.publisher = events.NewPublisher(app.brokerClient, logger)

	app.jwtService = auth.NewJWTService(cfg.Auth)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	app.userService = service.NewUserService(app.userStore, hasher, app.jwtService, logger)

	scheduler := service.NewBrokerReminderScheduler(app.brokerClient, logger)
	app.taskService = service.NewTaskService(app.taskStore, app.publisher, scheduler, logger)
	app.assistantService = service.NewAssistantService(app.taskService, logger)

	app.auditConsumer = consumer.NewAuditConsumer(app.transactor, app.auditStore, logger)
	app.reminderConsumer = consumer.NewReminderConsumer(app.taskStore, app.publisher, logger)
	app.recurrenceConsumer = consumer.NewRecurrenceConsumer(app.transactor, app.taskStore, logger)

	return app
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
