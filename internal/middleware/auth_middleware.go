package middleware

import (
	"strings"

	"go-rbac-admin/internal/model"
	"go-rbac-admin/internal/repository"
	"go-rbac-admin/internal/service"
	"go-rbac-admin/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

const userKey = "user"

// CurrentUser returns the principal stored by RequireAuth, or nil.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(userKey).(*model.User)
	return user
}

// RequireAuth verifies the bearer token and loads the user it names.
func RequireAuth(signer *jwt.Signer, userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := signer.ValidateToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		user, err := userRepo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
		}

		c.Locals(userKey, user)
		c.Locals("user_id", user.ID.String())
		return c.Next()
	}
}

// RequireAdmin lets only holders of the admin role through.
func RequireAdmin(dir repository.Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || user.RoleID == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: admin role required"})
		}
		role, err := dir.GetRole(c.UserContext(), *user.RoleID)
		if err != nil || !role.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: admin role required"})
		}
		return c.Next()
	}
}

// RequirePermission checks "<resource>.<action>" for the current user.
// It applies no ownership gate; instance checks happen in the services.
func RequirePermission(authz service.Authorizer, resource, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authz.Can(c.UserContext(), CurrentUser(c), action, resource, nil) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires '" + model.PermissionName(resource, action) + "' permission",
			})
		}
		return c.Next()
	}
}
