package handler

import (
	"go-rbac-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	policyService service.PolicyService
}

func NewRoleHandler(policyService service.PolicyService) *RoleHandler {
	return &RoleHandler{policyService: policyService}
}

// GetRoles returns every role except admin
// GET /api/v1/admin/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.policyService.ListRoles(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(roles)
}

// GetRole returns the role with its permissions and every assignable permission
// GET /api/v1/admin/roles/:id
func (h *RoleHandler) GetRole(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role ID"})
	}
	role, err := h.policyService.GetRole(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	permissions, err := h.policyService.ListPermissions(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"role": role, "permissions": permissions})
}

// CreateRole
// POST /api/v1/admin/roles
func (h *RoleHandler) CreateRole(c *fiber.Ctx) error {
	var req service.RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	role, err := h.policyService.CreateRole(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Role added",
		"data":    role,
	})
}

// UpdateRole renames a role
// PUT /api/v1/admin/roles/:id
func (h *RoleHandler) UpdateRole(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role ID"})
	}
	var req service.RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	role, err := h.policyService.RenameRole(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Role updated",
		"data":    role,
	})
}

// DeleteRole
// DELETE /api/v1/admin/roles/:id
func (h *RoleHandler) DeleteRole(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role ID"})
	}
	if err := h.policyService.DeleteRole(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role deleted"})
}

// AssignPermissions replaces the role's permission set
// POST /api/v1/admin/roles/:id/permissions
func (h *RoleHandler) AssignPermissions(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role ID"})
	}
	var req struct {
		Permissions []uint `json:"permissions"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	role, err := h.policyService.SetRolePermissions(c.UserContext(), id, req.Permissions)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Permissions updated",
		"data":    role,
	})
}
