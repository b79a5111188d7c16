package database

import (
	"context"
	"errors"
	"fmt"

	"go-rbac-admin/internal/model"
	"go-rbac-admin/internal/repository"

	"gorm.io/gorm"
)

// Migrate creates the users, roles, permissions, role_permissions and posts tables.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&model.Role{}, "Permissions", &model.RolePermission{}); err != nil {
		return fmt.Errorf("database: join table: %w", err)
	}
	return db.AutoMigrate(&model.Role{}, &model.Permission{}, &model.RolePermission{}, &model.User{}, &model.Post{})
}

// Seed creates the admin role and default permissions, and gives the admin
// role to the user with adminEmail when that user exists and has no role.
func Seed(ctx context.Context, db *gorm.DB, adminEmail string) error {
	roleRepo := repository.NewRoleRepo(db)
	permissionRepo := repository.NewPermissionRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := permissionRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("database: seed permissions: %w", err)
	}
	if err := roleRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("database: seed roles: %w", err)
	}

	if adminEmail == "" {
		return nil
	}
	user, err := userRepo.FindByEmail(ctx, adminEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("database: seed admin user: %w", err)
	}
	if user.RoleID != nil {
		return nil
	}
	admin, err := roleRepo.FindByName(ctx, model.AdminRoleName)
	if err != nil {
		return fmt.Errorf("database: seed admin: %w", err)
	}
	return userRepo.UpdateRole(ctx, user.ID, &admin.ID)
}
