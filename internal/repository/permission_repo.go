package repository

import (
	"context"

	"go-rbac-admin/internal/model"

	"gorm.io/gorm"
)

type PermissionRepository interface {
	FindAll(ctx context.Context) ([]model.Permission, error)
	FindByID(ctx context.Context, id uint) (*model.Permission, error)
	FindByName(ctx context.Context, name string) (*model.Permission, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Permission, error)
	RoleIDs(ctx context.Context, permissionID uint) ([]uint, error)
	Create(ctx context.Context, permission *model.Permission) error
	Rename(ctx context.Context, id uint, name string) error
	Delete(ctx context.Context, id uint) error
	SeedDefaults(ctx context.Context) error
	WithTx(tx *gorm.DB) PermissionRepository
}

type permissionRepo struct {
	db *gorm.DB
}

func NewPermissionRepo(db *gorm.DB) PermissionRepository {
	return &permissionRepo{db}
}

func (r *permissionRepo) WithTx(tx *gorm.DB) PermissionRepository {
	return &permissionRepo{tx}
}

func (r *permissionRepo) FindAll(ctx context.Context) ([]model.Permission, error) {
	var permissions []model.Permission
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&permissions).Error; err != nil {
		return nil, err
	}
	return permissions, nil
}

func (r *permissionRepo) FindByID(ctx context.Context, id uint) (*model.Permission, error) {
	var permission model.Permission
	if err := r.db.WithContext(ctx).First(&permission, id).Error; err != nil {
		return nil, translate(err)
	}
	return &permission, nil
}

func (r *permissionRepo) FindByName(ctx context.Context, name string) (*model.Permission, error) {
	var permission model.Permission
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&permission).Error; err != nil {
		return nil, translate(err)
	}
	return &permission, nil
}

// FindByIDs returns the permissions that exist among ids; missing ids are
// silently skipped, callers compare lengths.
func (r *permissionRepo) FindByIDs(ctx context.Context, ids []uint) ([]model.Permission, error) {
	var permissions []model.Permission
	if len(ids) == 0 {
		return permissions, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&permissions).Error; err != nil {
		return nil, err
	}
	return permissions, nil
}

// RoleIDs lists the roles currently granted the permission.
func (r *permissionRepo) RoleIDs(ctx context.Context, permissionID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.RolePermission{}).
		Where("permission_id = ?", permissionID).
		Pluck("role_id", &ids).Error
	return ids, err
}

func (r *permissionRepo) Create(ctx context.Context, permission *model.Permission) error {
	return r.db.WithContext(ctx).Create(permission).Error
}

func (r *permissionRepo) Rename(ctx context.Context, id uint, name string) error {
	res := r.db.WithContext(ctx).Model(&model.Permission{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the permission together with every link to it.
func (r *permissionRepo) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("permission_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
		return err
	}
	res := db.Delete(&model.Permission{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedDefaults creates default permissions if they don't exist
func (r *permissionRepo) SeedDefaults(ctx context.Context) error {
	for _, p := range model.DefaultPermissions {
		var existing model.Permission
		err := r.db.WithContext(ctx).Where("name = ?", p.Name).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			permission := p
			if err := r.db.WithContext(ctx).Create(&permission).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}
