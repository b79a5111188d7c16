// Package testutil builds throwaway gorm databases for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"go-rbac-admin/internal/model"
	"go-rbac-admin/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the schema migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user holding roleID (nil for none).
func CreateUser(t testing.TB, db *gorm.DB, email string, roleID *uint) *model.User {
	t.Helper()
	user := &model.User{Email: email, FullName: email, RoleID: roleID}
	if err := db.WithContext(context.Background()).Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// CreateRole inserts a role directly, bypassing the reserved name check.
func CreateRole(t testing.TB, db *gorm.DB, name string) *model.Role {
	t.Helper()
	role := &model.Role{Name: name}
	if err := db.Create(role).Error; err != nil {
		t.Fatalf("create role %s: %v", name, err)
	}
	return role
}

// CreatePermission inserts a permission directly.
func CreatePermission(t testing.TB, db *gorm.DB, name string) *model.Permission {
	t.Helper()
	permission := &model.Permission{Name: name}
	if err := db.Create(permission).Error; err != nil {
		t.Fatalf("create permission %s: %v", name, err)
	}
	return permission
}

// Grant links permissions to a role.
func Grant(t testing.TB, db *gorm.DB, role *model.Role, permissions ...*model.Permission) {
	t.Helper()
	for _, p := range permissions {
		if err := db.Create(&model.RolePermission{RoleID: role.ID, PermissionID: p.ID}).Error; err != nil {
			t.Fatalf("grant %s to %s: %v", p.Name, role.Name, err)
		}
	}
}
