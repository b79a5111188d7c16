package model

import "time"

// Permission is an atomic named capability, e.g. "post.update".
type Permission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RolePermission is one row of the role_permissions association.
// The composite primary key forbids duplicate grants.
type RolePermission struct {
	RoleID       uint `gorm:"primaryKey"`
	PermissionID uint `gorm:"primaryKey"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

// PermissionName builds the permission name checked for an action on a
// resource type. Administration and authorization both rely on this format.
func PermissionName(resource, action string) string {
	return resource + "." + action
}

// Resource types and actions known to the application.
const (
	ResourcePost = "post"

	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// DefaultPermissions are seeded on first start.
var DefaultPermissions = []Permission{
	{Name: PermissionName(ResourcePost, ActionCreate)},
	{Name: PermissionName(ResourcePost, ActionUpdate)},
	{Name: PermissionName(ResourcePost, ActionDelete)},
}
