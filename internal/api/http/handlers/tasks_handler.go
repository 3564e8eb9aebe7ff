package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/dto"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/repository"
	"github.com/spec-kit/task-service/internal/service"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// TasksHandler manages task endpoints. Per-resource routes run through the
// request pipeline: authenticate, resolve the row (404 for an absent id,
// before ownership is even considered), authorize, then the operation.
type TasksHandler struct {
	service  *service.TaskService
	pipeline *auth.Pipeline
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService, pipeline *auth.Pipeline) *TasksHandler {
	return &TasksHandler{service: taskService, pipeline: pipeline}
}

// Create POST /tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	task, err := h.service.Create(c.UserContext(), identity.SubjectID, service.TaskCreateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": taskResponse(task)})
}

// List GET /tasks.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}
	tasks, err := h.service.ListByOwner(c.UserContext(), identity.SubjectID, parseTaskQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponses(tasks)})
}

// Get GET /tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	var task *domain.Task
	err := h.run(c, auth.CapabilityRead, &task, func(_ context.Context, _ *auth.Identity) error {
		return c.JSON(fiber.Map{"data": taskResponse(task)})
	})
	return err
}

// Update PUT /tasks/:id.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var task *domain.Task
	return h.run(c, auth.CapabilityWrite, &task, func(ctx context.Context, _ *auth.Identity) error {
		updated, err := h.service.Update(ctx, task, service.TaskUpdateInput{
			Title:       req.Title,
			Description: req.Description,
			Completed:   req.Completed,
			DueDate:     req.DueDate,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": taskResponse(updated)})
	})
}

// Complete POST /tasks/:id/complete.
func (h *TasksHandler) Complete(c *fiber.Ctx) error {
	var task *domain.Task
	return h.run(c, auth.CapabilityWrite, &task, func(ctx context.Context, _ *auth.Identity) error {
		completed, err := h.service.Complete(ctx, task)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": taskResponse(completed)})
	})
}

// Delete DELETE /tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	var task *domain.Task
	return h.run(c, auth.CapabilityDelete, &task, func(ctx context.Context, _ *auth.Identity) error {
		if err := h.service.Delete(ctx, task); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	})
}

// run drives one per-resource operation through the pipeline. The resolver
// loads the row once and hands its owner to the authorization engine.
func (h *TasksHandler) run(c *fiber.Ctx, capability auth.Capability, task **domain.Task, op auth.Operation) error {
	taskID := c.Params("id")
	resolve := func(ctx context.Context) (string, error) {
		loaded, err := h.service.GetByID(ctx, taskID)
		if err != nil {
			return "", err
		}
		*task = loaded
		return loaded.OwnerID, nil
	}

	err := h.pipeline.Run(c.UserContext(), c.Get(fiber.HeaderAuthorization), capability, resolve, op)
	if err != nil {
		return auth.HTTPError(err)
	}
	return nil
}

func parseTaskQuery(c *fiber.Ctx) repository.TaskFilter {
	filter := repository.TaskFilter{}
	if completedStr := c.Query("completed"); completedStr != "" {
		if completed, err := strconv.ParseBool(completedStr); err == nil {
			filter.Completed = &completed
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func taskResponse(task *domain.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          task.ID,
		OwnerID:     task.OwnerID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func taskResponses(tasks []domain.Task) []dto.TaskResponse {
	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, taskResponse(&tasks[i]))
	}
	return items
}
