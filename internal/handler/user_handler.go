package handler

import (
	"go-rbac-admin/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	policyService service.PolicyService
}

func NewUserHandler(policyService service.PolicyService) *UserHandler {
	return &UserHandler{policyService: policyService}
}

// GetUsers returns all users with their role
// GET /api/v1/admin/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.policyService.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// UpdateUserRole replaces the user's role
// PUT /api/v1/admin/users/:id/role
func (h *UserHandler) UpdateUserRole(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req service.UserRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	req.UserID = userID

	user, err := h.policyService.SetUserRole(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Role assigned",
		"data":    user.ToResponse(),
	})
}
