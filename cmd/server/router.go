package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/taskline/taskline-api/internal/api"
	apimiddleware "github.com/taskline/taskline-api/internal/api/middleware"
)

// setupRouter builds the application router: the client-facing REST API
// under /api, the public auth endpoints, and the broker-facing consumer
// endpoints, which stay unauthenticated because the broker sidecar does
// not carry user credentials.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.Trace)

	authHandler := api.NewAuthHandler(app.userService)
	taskHandler := api.NewTaskHandler(app.taskService)
	assistantHandler := api.NewAssistantHandler(app.assistantService)
	eventHandler := api.NewEventHandler(
		app.brokerClient.PubsubName(),
		app.auditConsumer,
		app.reminderConsumer,
		app.recurrenceConsumer,
		app.auditStore,
		app.logger,
	)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	// Broker-facing surface.
	r.Get("/subscribe", eventHandler.Subscriptions)
	r.Post("/events/task-events", eventHandler.TaskEvents)
	r.Post("/events/reminders", eventHandler.Reminders)
	r.Post("/events/task-updates", eventHandler.TaskUpdates)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}", taskHandler.UpdateTask)
			r.Patch("/tasks/{id}/toggle", taskHandler.ToggleTask)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)

			r.Get("/events/audit", eventHandler.AuditTrail)

			r.Post("/assistant", assistantHandler.Chat)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
