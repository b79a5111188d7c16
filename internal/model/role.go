package model

import "time"

// AdminRoleName is the reserved superuser role. It implicitly holds every
// permission and cannot be renamed, deleted or have its permissions edited.
const AdminRoleName = "admin"

// Role is a named bundle of permissions assignable to users.
type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsAdmin reports whether r is the reserved admin role.
func (r *Role) IsAdmin() bool {
	return r != nil && r.Name == AdminRoleName
}

// PermissionNames returns the names of the preloaded permissions.
func (r *Role) PermissionNames() []string {
	names := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		names[i] = p.Name
	}
	return names
}

// DefaultRoles defines the roles created on first start.
var DefaultRoles = []Role{
	{Name: AdminRoleName},
}
