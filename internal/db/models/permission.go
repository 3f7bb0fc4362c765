package models

import "time"

// Permission represents an entry of the permission catalog.
// Catalog entries name the resource:action pairs an administrator may grant.
// Deactivating or deleting an entry never touches role rows or overrides that reference it.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the immutable identifier in resource:action or resource.action format (e.g., "roles:read").
	Name string `gorm:"uniqueIndex;size:150;not null" json:"name"`
	// Resource is the resource part parsed from Name at creation.
	Resource string `gorm:"index:idx_permission_resource_action;size:100;not null" json:"resource"`
	// Action is the action part parsed from Name at creation.
	Action string `gorm:"index:idx_permission_resource_action;size:50;not null" json:"action"`
	// DisplayName is the label shown to administrators. Defaults to Name.
	DisplayName string `gorm:"size:150" json:"display_name"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255" json:"description"`
	// IsActive hides the entry from active listings without deleting it.
	IsActive bool `gorm:"not null" json:"is_active"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
