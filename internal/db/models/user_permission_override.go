package models

import (
	"time"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

// UserPermissionOverride is a user specific rule that takes precedence over role grants
// while its time restriction and IP allowlist hold.
type UserPermissionOverride struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint64 `gorm:"index;not null" json:"user_id"`
	Resource  string `gorm:"size:100;not null" json:"resource"`
	Action    string `gorm:"size:50;not null" json:"action"`
	IsAllowed bool   `gorm:"not null" json:"is_allowed"`
	Priority  int    `gorm:"not null;default:0" json:"priority"`
	// TimeRestriction is stored as JSON. Nil means always.
	TimeRestriction *permission.TimeRestriction `gorm:"serializer:json;type:text" json:"time_restriction,omitempty"`
	// AllowedIPs holds addresses or CIDR blocks. Empty means any client.
	AllowedIPs []string  `gorm:"serializer:json;type:text" json:"allowed_ips,omitempty"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the UserPermissionOverride model.
func (UserPermissionOverride) TableName() string {
	return "user_permission_overrides"
}

// ToOverride converts the model into the resolver's view.
func (o *UserPermissionOverride) ToOverride() permission.Override {
	return permission.Override{
		ID:              o.ID,
		UserID:          o.UserID,
		Resource:        o.Resource,
		Action:          o.Action,
		IsAllowed:       o.IsAllowed,
		Priority:        o.Priority,
		TimeRestriction: o.TimeRestriction,
		AllowedIPs:      o.AllowedIPs,
		IsActive:        o.IsActive,
		CreatedAt:       o.CreatedAt,
	}
}
