package service

import (
	"context"
	"log/slog"

	"go-rbac-admin/internal/metrics"
	"go-rbac-admin/internal/model"
	"go-rbac-admin/internal/repository"

	"github.com/google/uuid"
)

// Authorizer decides whether a user may perform an action on a resource type.
// It never returns errors: anything it cannot resolve is a deny.
type Authorizer interface {
	// Can checks user against the "<resource>.<action>" permission. A non-nil
	// ownerID additionally requires the user to own the resource instance.
	Can(ctx context.Context, user *model.User, action, resource string, ownerID *uuid.UUID) bool
	// CanUser resolves userID through the directory first.
	CanUser(ctx context.Context, userID uuid.UUID, action, resource string, ownerID *uuid.UUID) bool
}

type authorizer struct {
	dir    repository.Directory
	logger *slog.Logger
}

func NewAuthorizer(dir repository.Directory, logger *slog.Logger) Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &authorizer{dir: dir, logger: logger}
}

func (a *authorizer) CanUser(ctx context.Context, userID uuid.UUID, action, resource string, ownerID *uuid.UUID) bool {
	user, err := a.dir.GetUser(ctx, userID)
	if err != nil {
		return a.deny(ctx, "unknown user", userID, action, resource)
	}
	return a.Can(ctx, user, action, resource, ownerID)
}

func (a *authorizer) Can(ctx context.Context, user *model.User, action, resource string, ownerID *uuid.UUID) bool {
	if user == nil {
		return a.deny(ctx, "no user", uuid.Nil, action, resource)
	}
	if user.RoleID == nil {
		return a.deny(ctx, "no role", user.ID, action, resource)
	}

	role, err := a.dir.GetRole(ctx, *user.RoleID)
	if err != nil {
		return a.deny(ctx, "role not resolved", user.ID, action, resource)
	}

	// Superuser bypass comes before any permission lookup.
	if role.IsAdmin() {
		return a.allow()
	}

	if action == "" || resource == "" {
		return a.deny(ctx, "empty action or resource", user.ID, action, resource)
	}

	permissions, err := a.dir.RolePermissions(ctx, role.ID)
	if err != nil {
		return a.deny(ctx, "permissions not resolved", user.ID, action, resource)
	}

	want := model.PermissionName(resource, action)
	granted := false
	for _, p := range permissions {
		if p.Name == want {
			granted = true
			break
		}
	}
	if !granted {
		return a.deny(ctx, "permission not granted", user.ID, action, resource)
	}

	if ownerID != nil && *ownerID != user.ID {
		return a.deny(ctx, "not the owner", user.ID, action, resource)
	}
	return a.allow()
}

func (a *authorizer) allow() bool {
	metrics.Decisions.WithLabelValues("allow").Inc()
	return true
}

func (a *authorizer) deny(ctx context.Context, reason string, userID uuid.UUID, action, resource string) bool {
	metrics.Decisions.WithLabelValues("deny").Inc()
	a.logger.DebugContext(ctx, "access denied",
		slog.String("reason", reason),
		slog.String("user_id", userID.String()),
		slog.String("action", action),
		slog.String("resource", resource),
	)
	return false
}
