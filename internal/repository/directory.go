package repository

import (
	"context"

	"go-rbac-admin/internal/model"

	"github.com/google/uuid"
)

// Directory is the read side of the RBAC store used by the authorizer.
// It hides the storage technology behind id and name lookups.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetRole(ctx context.Context, id uint) (*model.Role, error)
	FindRoleByName(ctx context.Context, name string) (*model.Role, error)
	GetPermission(ctx context.Context, id uint) (*model.Permission, error)
	ListRoles(ctx context.Context, excludeName string) ([]model.Role, error)
	RolePermissions(ctx context.Context, roleID uint) ([]model.Permission, error)
}

type directory struct {
	users       UserRepository
	roles       RoleRepository
	permissions PermissionRepository
}

func NewDirectory(users UserRepository, roles RoleRepository, permissions PermissionRepository) Directory {
	return &directory{
		users:       users,
		roles:       roles,
		permissions: permissions,
	}
}

func (d *directory) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return d.users.FindByID(ctx, id)
}

// GetRole does not load the permission set; use RolePermissions for that.
func (d *directory) GetRole(ctx context.Context, id uint) (*model.Role, error) {
	return d.roles.FindByIDShallow(ctx, id)
}

func (d *directory) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	return d.roles.FindByName(ctx, name)
}

func (d *directory) GetPermission(ctx context.Context, id uint) (*model.Permission, error) {
	return d.permissions.FindByID(ctx, id)
}

func (d *directory) ListRoles(ctx context.Context, excludeName string) ([]model.Role, error) {
	return d.roles.FindAll(ctx, excludeName)
}

// RolePermissions reports ErrNotFound for an unknown role rather than an
// empty set.
func (d *directory) RolePermissions(ctx context.Context, roleID uint) ([]model.Permission, error) {
	role, err := d.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}
