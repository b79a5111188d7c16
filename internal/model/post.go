package model

import "github.com/google/uuid"

// Post is the owned resource guarded by the ownership gate.
type Post struct {
	BaseModel
	Title   string    `gorm:"type:varchar(255);not null" json:"title" validate:"required"`
	Body    string    `gorm:"type:text;not null" json:"body" validate:"required"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id" validate:"uuid_required"`
	Owner   *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}
