package handler

import (
	"time"

	"go-rbac-admin/internal/middleware"
	"go-rbac-admin/internal/model"
	"go-rbac-admin/internal/repository"
	"go-rbac-admin/internal/service"
	"go-rbac-admin/internal/ws"
	"go-rbac-admin/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Dependencies are the collaborators the HTTP layer delegates to.
type Dependencies struct {
	Signer         *jwt.Signer
	UserRepo       repository.UserRepository
	Directory      repository.Directory
	Authorizer     service.Authorizer
	PolicyService  service.PolicyService
	PostService    service.PostService
	Hub            *ws.Hub
	AdminRateLimit int
}

// SetupRoutes mounts the API under /api/v1 and the event socket under /ws.
func SetupRoutes(app *fiber.App, d Dependencies) {
	roleHandler := NewRoleHandler(d.PolicyService)
	permissionHandler := NewPermissionHandler(d.PolicyService)
	userHandler := NewUserHandler(d.PolicyService)
	postHandler := NewPostHandler(d.PostService)
	authzHandler := NewAuthzHandler(d.Authorizer)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	api.Get("/posts", postHandler.GetPosts)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(d.Signer, d.UserRepo))
	protected.Get("/can", authzHandler.Can)
	protected.Post("/posts", middleware.RequirePermission(d.Authorizer, model.ResourcePost, model.ActionCreate), postHandler.CreatePost)
	protected.Put("/posts/:id", postHandler.UpdatePost)
	protected.Delete("/posts/:id", postHandler.DeletePost)

	// ============ ADMIN ROUTES ============
	adminMiddleware := []fiber.Handler{middleware.RequireAdmin(d.Directory)}
	if d.AdminRateLimit > 0 {
		adminMiddleware = append(adminMiddleware, limiter.New(limiter.Config{
			Max:        d.AdminRateLimit,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				if id, ok := c.Locals("user_id").(string); ok {
					return id
				}
				return c.IP()
			},
		}))
	}
	admin := protected.Group("/admin", adminMiddleware...)

	admin.Get("/roles", roleHandler.GetRoles)
	admin.Post("/roles", roleHandler.CreateRole)
	admin.Get("/roles/:id", roleHandler.GetRole)
	admin.Put("/roles/:id", roleHandler.UpdateRole)
	admin.Delete("/roles/:id", roleHandler.DeleteRole)
	admin.Post("/roles/:id/permissions", roleHandler.AssignPermissions)

	admin.Get("/permissions", permissionHandler.GetPermissions)
	admin.Post("/permissions", permissionHandler.CreatePermission)
	admin.Put("/permissions/:id", permissionHandler.UpdatePermission)
	admin.Delete("/permissions/:id", permissionHandler.DeletePermission)

	admin.Get("/users", userHandler.GetUsers)
	admin.Put("/users/:id/role", userHandler.UpdateUserRole)

	if d.Hub == nil {
		return
	}
	app.Use("/ws", middleware.RequireAuth(d.Signer, d.UserRepo), middleware.RequireAdmin(d.Directory), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !d.Hub.Add(c) {
			return
		}
		defer d.Hub.Remove(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
