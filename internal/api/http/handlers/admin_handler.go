package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/dto"
	"github.com/spec-kit/task-service/internal/service"
)

// AdminHandler exposes bulk enumeration endpoints. Routes are gated on the
// elevated role upstream; ownership resolution is bypassed entirely here.
type AdminHandler struct {
	tasks *service.TaskService
	users *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(taskService *service.TaskService, authService *service.AuthService) *AdminHandler {
	return &AdminHandler{tasks: taskService, users: authService}
}

// ListTasks GET /admin/tasks.
func (h *AdminHandler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListAll(c.UserContext(), parseTaskQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponses(tasks)})
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	users, err := h.users.ListUsers(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
