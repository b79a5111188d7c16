package repository

import (
	"context"

	"go-rbac-admin/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll(ctx context.Context, excludeName string) ([]model.Role, error)
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByIDShallow(ctx context.Context, id uint) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	LockByID(ctx context.Context, id uint) (*model.Role, error)
	Create(ctx context.Context, role *model.Role) error
	Rename(ctx context.Context, id uint, name string) error
	Delete(ctx context.Context, id uint) error
	ReplacePermissions(ctx context.Context, role *model.Role, permissions []model.Permission) error
	SeedDefaults(ctx context.Context) error
	WithTx(tx *gorm.DB) RoleRepository
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) WithTx(tx *gorm.DB) RoleRepository {
	return &roleRepo{db: tx}
}

// FindAll lists roles newest first. A non-empty excludeName hides that role.
func (r *roleRepo) FindAll(ctx context.Context, excludeName string) ([]model.Role, error) {
	var roles []model.Role
	q := r.db.WithContext(ctx).Preload("Permissions")
	if excludeName != "" {
		q = q.Where("name <> ?", excludeName)
	}
	err := q.Order("created_at DESC").Order("id DESC").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Preload("Permissions", func(db *gorm.DB) *gorm.DB {
		return db.Order("permissions.name")
	}).First(&role, id).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

// FindByIDShallow loads the role row only, leaving Permissions empty.
func (r *roleRepo) FindByIDShallow(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

// LockByID loads the role and holds its row lock for the rest of the transaction.
func (r *roleRepo) LockByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := forUpdate(r.db.WithContext(ctx)).First(&role, id).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepo) Create(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *roleRepo) Rename(ctx context.Context, id uint, name string) error {
	res := r.db.WithContext(ctx).Model(&model.Role{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the role and its permission links.
func (r *roleRepo) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("role_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
		return err
	}
	res := db.Delete(&model.Role{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplacePermissions makes the role's links exactly the given permissions.
func (r *roleRepo) ReplacePermissions(ctx context.Context, role *model.Role, permissions []model.Permission) error {
	assoc := r.db.WithContext(ctx).Model(role).Association("Permissions")
	if len(permissions) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(permissions)
}

func (r *roleRepo) SeedDefaults(ctx context.Context) error {
	for _, defaultRole := range model.DefaultRoles {
		var existingRole model.Role
		err := r.db.WithContext(ctx).Where("name = ?", defaultRole.Name).First(&existingRole).Error
		if err == gorm.ErrRecordNotFound {
			role := defaultRole
			if err := r.db.WithContext(ctx).Create(&role).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}
