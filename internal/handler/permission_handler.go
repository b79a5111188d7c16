package handler

import (
	"go-rbac-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PermissionHandler struct {
	policyService service.PolicyService
}

func NewPermissionHandler(policyService service.PolicyService) *PermissionHandler {
	return &PermissionHandler{policyService: policyService}
}

// GET /api/v1/admin/permissions
func (h *PermissionHandler) GetPermissions(c *fiber.Ctx) error {
	permissions, err := h.policyService.ListPermissions(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(permissions)
}

// POST /api/v1/admin/permissions
func (h *PermissionHandler) CreatePermission(c *fiber.Ctx) error {
	var req service.PermissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	permission, err := h.policyService.CreatePermission(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Permission added",
		"data":    permission,
	})
}

// PUT /api/v1/admin/permissions/:id
func (h *PermissionHandler) UpdatePermission(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid permission ID"})
	}
	var req service.PermissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	permission, err := h.policyService.RenamePermission(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Permission updated",
		"data":    permission,
	})
}

// DELETE /api/v1/admin/permissions/:id
func (h *PermissionHandler) DeletePermission(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid permission ID"})
	}
	if err := h.policyService.DeletePermission(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Permission deleted"})
}
