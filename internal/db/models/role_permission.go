package models

import (
	"time"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

// RolePermission is one normalized grant row of a role.
// Rows are never deleted by the coordinator; a revoked grant is deactivated.
type RolePermission struct {
	// ID is the unique identifier for the row.
	ID uint `gorm:"primaryKey" json:"id"`
	// RoleID is the owning role.
	RoleID uint `gorm:"index;not null" json:"role_id"`
	// Resource is the stored resource name. Lookups go through the normalizer.
	Resource string `gorm:"size:100;not null" json:"resource"`
	// Action is the granted action.
	Action string `gorm:"size:50;not null" json:"action"`
	// Domain is "*" or "company:<uuid>".
	Domain string `gorm:"size:64;not null" json:"domain"`
	// IsActive marks whether the resolver considers the row.
	IsActive bool `gorm:"not null" json:"is_active"`
	// Effect is allow or deny.
	Effect permission.Effect `gorm:"type:varchar(10);not null" json:"effect"`
	// Priority orders rows of the same domain, higher first.
	Priority int `gorm:"not null;default:0" json:"priority"`
	// Conditions optionally restricts the row to a time window or client addresses.
	Conditions *permission.Conditions `gorm:"serializer:json;type:text" json:"conditions,omitempty"`
	// CreatedAt is the timestamp when the row was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the row was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the RolePermission model.
func (RolePermission) TableName() string {
	return "role_permissions"
}

// ToRow converts the model into the resolver's view.
func (rp *RolePermission) ToRow() permission.Row {
	return permission.Row{
		ID:         rp.ID,
		RoleID:     rp.RoleID,
		Resource:   rp.Resource,
		Action:     rp.Action,
		Domain:     rp.Domain,
		IsActive:   rp.IsActive,
		Effect:     rp.Effect,
		Priority:   rp.Priority,
		Conditions: rp.Conditions,
	}
}
