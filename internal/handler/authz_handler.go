package handler

import (
	"go-rbac-admin/internal/middleware"
	"go-rbac-admin/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AuthzHandler lets a rendering layer ask whether to show a guarded element.
type AuthzHandler struct {
	authz service.Authorizer
}

func NewAuthzHandler(authz service.Authorizer) *AuthzHandler {
	return &AuthzHandler{authz: authz}
}

// Can answers for the current user
// GET /api/v1/can?action=update&resource=post&owner_id=<uuid>
func (h *AuthzHandler) Can(c *fiber.Ctx) error {
	var ownerID *uuid.UUID
	if raw := c.Query("owner_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid owner_id"})
		}
		ownerID = &id
	}

	allowed := h.authz.Can(c.UserContext(), middleware.CurrentUser(c), c.Query("action"), c.Query("resource"), ownerID)
	return c.JSON(fiber.Map{"allowed": allowed})
}
