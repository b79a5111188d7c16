package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-rbac-admin/internal/metrics"
	"go-rbac-admin/internal/model"
	"go-rbac-admin/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleDeletePolicy decides what happens to users still holding a role that
// is being deleted.
type RoleDeletePolicy string

const (
	// DeleteCascade clears the role assignment of those users.
	DeleteCascade RoleDeletePolicy = "cascade"
	// DeleteReject refuses the deletion while any user holds the role.
	DeleteReject RoleDeletePolicy = "reject"
)

// ParseRoleDeletePolicy accepts "cascade" or "reject".
func ParseRoleDeletePolicy(s string) (RoleDeletePolicy, error) {
	switch p := RoleDeletePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DeleteCascade, DeleteReject:
		return p, nil
	}
	return "", fmt.Errorf("unknown role delete policy %q", s)
}

// Invalidator drops cached role permission sets.
type Invalidator interface {
	Invalidate(ctx context.Context, roleIDs ...uint) error
}

// Broadcaster pushes a message to connected admin clients.
type Broadcaster interface {
	Publish(message []byte)
}

// PolicyService is the administration API. Each mutation runs in one
// transaction; on error nothing is applied.
type PolicyService interface {
	CreateRole(ctx context.Context, req *RoleRequest) (*model.Role, error)
	RenameRole(ctx context.Context, roleID uint, req *RoleRequest) (*model.Role, error)
	DeleteRole(ctx context.Context, roleID uint) error
	CreatePermission(ctx context.Context, req *PermissionRequest) (*model.Permission, error)
	RenamePermission(ctx context.Context, permissionID uint, req *PermissionRequest) (*model.Permission, error)
	DeletePermission(ctx context.Context, permissionID uint) error
	SetRolePermissions(ctx context.Context, roleID uint, permissionIDs []uint) (*model.Role, error)
	SetUserRole(ctx context.Context, req *UserRoleRequest) (*model.User, error)

	ListRoles(ctx context.Context) ([]model.Role, error)
	GetRole(ctx context.Context, roleID uint) (*model.Role, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	ListUsers(ctx context.Context) ([]model.UserResponse, error)
}

type RoleRequest struct {
	Name string `json:"name" validate:"required,min=3,max=100"`
}

type PermissionRequest struct {
	Name string `json:"name" validate:"required,min=3,max=100"`
}

type UserRoleRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"uuid_required"`
	RoleID uint      `json:"role_id" validate:"required"`
}

type PolicyOptions struct {
	DeletePolicy RoleDeletePolicy
	Cache        Invalidator
	Hub          Broadcaster
	Logger       *slog.Logger
}

type policyService struct {
	db             *gorm.DB
	userRepo       repository.UserRepository
	roleRepo       repository.RoleRepository
	permissionRepo repository.PermissionRepository
	opts           PolicyOptions
}

func NewPolicyService(db *gorm.DB, userRepo repository.UserRepository, roleRepo repository.RoleRepository, permissionRepo repository.PermissionRepository, opts PolicyOptions) PolicyService {
	if opts.DeletePolicy == "" {
		opts.DeletePolicy = DeleteCascade
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &policyService{
		db:             db,
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
		opts:           opts,
	}
}

type txRepos struct {
	users       repository.UserRepository
	roles       repository.RoleRepository
	permissions repository.PermissionRepository
}

func (s *policyService) inTx(ctx context.Context, fn func(r txRepos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txRepos{
			users:       s.userRepo.WithTx(tx),
			roles:       s.roleRepo.WithTx(tx),
			permissions: s.permissionRepo.WithTx(tx),
		})
	})
}

func (s *policyService) CreateRole(ctx context.Context, req *RoleRequest) (*model.Role, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Name == model.AdminRoleName {
		return nil, fmt.Errorf("%w: role name %q is reserved", ErrForbidden, req.Name)
	}

	role := &model.Role{Name: req.Name}
	err := s.inTx(ctx, func(r txRepos) error {
		if err := uniqueRoleName(ctx, r.roles, req.Name, 0); err != nil {
			return err
		}
		return duplicate(r.roles.Create(ctx, role), "role", req.Name)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, "create_role", map[string]interface{}{"role_id": role.ID, "name": role.Name})
	return role, nil
}

func (s *policyService) RenameRole(ctx context.Context, roleID uint, req *RoleRequest) (*model.Role, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	var role *model.Role
	err := s.inTx(ctx, func(r txRepos) error {
		var err error
		role, err = r.roles.LockByID(ctx, roleID)
		if err != nil {
			return err
		}
		if role.IsAdmin() {
			return fmt.Errorf("%w: the %s role cannot be renamed", ErrForbidden, model.AdminRoleName)
		}
		if req.Name == model.AdminRoleName {
			return fmt.Errorf("%w: role name %q is reserved", ErrForbidden, req.Name)
		}
		if err := uniqueRoleName(ctx, r.roles, req.Name, roleID); err != nil {
			return err
		}
		if err := duplicate(r.roles.Rename(ctx, roleID, req.Name), "role", req.Name); err != nil {
			return err
		}
		role.Name = req.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, "rename_role", map[string]interface{}{"role_id": role.ID, "name": role.Name})
	return role, nil
}

func (s *policyService) DeleteRole(ctx context.Context, roleID uint) error {
	var cleared int64
	err := s.inTx(ctx, func(r txRepos) error {
		role, err := r.roles.LockByID(ctx, roleID)
		if err != nil {
			return err
		}
		if role.IsAdmin() {
			return fmt.Errorf("%w: the %s role cannot be deleted", ErrForbidden, model.AdminRoleName)
		}

		if s.opts.DeletePolicy == DeleteReject {
			n, err := r.users.CountByRole(ctx, roleID)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: role %q is still assigned to %d user(s)", ErrValidation, role.Name, n)
			}
		}

		if cleared, err = r.users.ClearRole(ctx, roleID); err != nil {
			return err
		}
		return r.roles.Delete(ctx, roleID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, roleID)
	s.committed(ctx, "delete_role", map[string]interface{}{"role_id": roleID, "users_cleared": cleared})
	return nil
}

func (s *policyService) CreatePermission(ctx context.Context, req *PermissionRequest) (*model.Permission, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	permission := &model.Permission{Name: req.Name}
	err := s.inTx(ctx, func(r txRepos) error {
		if err := uniquePermissionName(ctx, r.permissions, req.Name, 0); err != nil {
			return err
		}
		return duplicate(r.permissions.Create(ctx, permission), "permission", req.Name)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, "create_permission", map[string]interface{}{"permission_id": permission.ID, "name": permission.Name})
	return permission, nil
}

func (s *policyService) RenamePermission(ctx context.Context, permissionID uint, req *PermissionRequest) (*model.Permission, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		permission *model.Permission
		roleIDs    []uint
	)
	err := s.inTx(ctx, func(r txRepos) error {
		var err error
		permission, err = r.permissions.FindByID(ctx, permissionID)
		if err != nil {
			return err
		}
		if err := uniquePermissionName(ctx, r.permissions, req.Name, permissionID); err != nil {
			return err
		}
		if err := duplicate(r.permissions.Rename(ctx, permissionID, req.Name), "permission", req.Name); err != nil {
			return err
		}
		permission.Name = req.Name
		roleIDs, err = r.permissions.RoleIDs(ctx, permissionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Links are by id; only the cached names of holding roles go stale.
	s.invalidate(ctx, roleIDs...)
	s.committed(ctx, "rename_permission", map[string]interface{}{"permission_id": permission.ID, "name": permission.Name})
	return permission, nil
}

func (s *policyService) DeletePermission(ctx context.Context, permissionID uint) error {
	var roleIDs []uint
	err := s.inTx(ctx, func(r txRepos) error {
		if _, err := r.permissions.FindByID(ctx, permissionID); err != nil {
			return err
		}
		var err error
		if roleIDs, err = r.permissions.RoleIDs(ctx, permissionID); err != nil {
			return err
		}
		return r.permissions.Delete(ctx, permissionID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, roleIDs...)
	s.committed(ctx, "delete_permission", map[string]interface{}{"permission_id": permissionID, "roles": roleIDs})
	return nil
}

// SetRolePermissions replaces the role's permission set with exactly
// permissionIDs. A nil slice is rejected; an empty one detaches everything.
func (s *policyService) SetRolePermissions(ctx context.Context, roleID uint, permissionIDs []uint) (*model.Role, error) {
	if permissionIDs == nil {
		return nil, fmt.Errorf("%w: permission id list is required", ErrValidation)
	}
	ids := dedupe(permissionIDs)

	var role *model.Role
	err := s.inTx(ctx, func(r txRepos) error {
		var err error
		role, err = r.roles.LockByID(ctx, roleID)
		if err != nil {
			return err
		}
		if role.IsAdmin() {
			return fmt.Errorf("%w: the %s role's permissions cannot be edited", ErrForbidden, model.AdminRoleName)
		}

		permissions, err := r.permissions.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(permissions) != len(ids) {
			return fmt.Errorf("%w: unknown permission id(s) %v", ErrValidation, missingIDs(ids, permissions))
		}

		if err := r.roles.ReplacePermissions(ctx, role, permissions); err != nil {
			return err
		}
		role, err = r.roles.FindByID(ctx, roleID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, roleID)
	s.committed(ctx, "set_role_permissions", map[string]interface{}{"role_id": roleID, "permissions": role.PermissionNames()})
	return role, nil
}

func (s *policyService) SetUserRole(ctx context.Context, req *UserRoleRequest) (*model.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.inTx(ctx, func(r txRepos) error {
		if _, err := r.users.FindByID(ctx, req.UserID); err != nil {
			return err
		}
		if _, err := r.roles.LockByID(ctx, req.RoleID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: role %d does not exist", ErrValidation, req.RoleID)
			}
			return err
		}
		roleID := req.RoleID
		if err := r.users.UpdateRole(ctx, req.UserID, &roleID); err != nil {
			return err
		}
		var err error
		user, err = r.users.FindByID(ctx, req.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, "set_user_role", map[string]interface{}{"user_id": user.ID.String(), "role_id": req.RoleID})
	return user, nil
}

// ListRoles hides the admin role so it cannot be picked for editing.
func (s *policyService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.roleRepo.FindAll(ctx, model.AdminRoleName)
}

func (s *policyService) GetRole(ctx context.Context, roleID uint) (*model.Role, error) {
	return s.roleRepo.FindByID(ctx, roleID)
}

func (s *policyService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return s.permissionRepo.FindAll(ctx)
}

func (s *policyService) ListUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *policyService) invalidate(ctx context.Context, roleIDs ...uint) {
	if s.opts.Cache == nil || len(roleIDs) == 0 {
		return
	}
	if err := s.opts.Cache.Invalidate(ctx, roleIDs...); err != nil {
		s.opts.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("error", err))
	}
}

// committed records and announces an operation after its transaction.
func (s *policyService) committed(ctx context.Context, operation string, detail map[string]interface{}) {
	metrics.PolicyChanges.WithLabelValues(operation).Inc()
	s.opts.Logger.InfoContext(ctx, "policy changed", slog.String("operation", operation), slog.Any("detail", detail))

	if s.opts.Hub == nil {
		return
	}
	payload := map[string]interface{}{
		"type":      "policy_changed",
		"operation": operation,
		"detail":    detail,
		"at":        time.Now(),
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.opts.Hub.Publish(msg)
}

func uniqueRoleName(ctx context.Context, roles repository.RoleRepository, name string, selfID uint) error {
	existing, err := roles.FindByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return fmt.Errorf("%w: role %q already exists", ErrValidation, name)
	}
	return nil
}

func uniquePermissionName(ctx context.Context, permissions repository.PermissionRepository, name string, selfID uint) error {
	existing, err := permissions.FindByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return fmt.Errorf("%w: permission %q already exists", ErrValidation, name)
	}
	return nil
}

// duplicate maps a unique index violation that slipped past the name check.
func duplicate(err error, kind, name string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s %q already exists", ErrValidation, kind, name)
	}
	return err
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []uint, found []model.Permission) []uint {
	have := make(map[uint]struct{}, len(found))
	for _, p := range found {
		have[p.ID] = struct{}{}
	}
	var missing []uint
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
