package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/http/handlers"
	"github.com/spec-kit/task-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tasks          *handlers.TasksHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Users.ChangePassword)

	app.Get("/users/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	// Collection routes authenticate via middleware; per-resource routes
	// run the full pipeline inside the handler.
	tasks := app.Group("/tasks")
	tasks.Post("/", cfg.AuthMiddleware.Handle, cfg.Tasks.Create)
	tasks.Get("/", cfg.AuthMiddleware.Handle, cfg.Tasks.List)
	tasks.Get("/:id", cfg.Tasks.Get)
	tasks.Put("/:id", cfg.Tasks.Update)
	tasks.Post("/:id/complete", cfg.Tasks.Complete)
	tasks.Delete("/:id", cfg.Tasks.Delete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireElevated())
	admin.Get("/tasks", cfg.Admin.ListTasks)
	admin.Get("/users", cfg.Admin.ListUsers)
}
