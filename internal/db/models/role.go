package models

import (
	"time"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

// Role represents a role in the role-based access control (RBAC) system.
// Permissions is the denormalized CRUD matrix of the role. It is kept identical to the
// role's active RolePermission rows and is only ever written by the coordinator.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the role name, unique within the company scope.
	Name string `gorm:"uniqueIndex:idx_role_company_name;size:100;not null" json:"name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// IsActive marks whether the role can be assigned.
	IsActive bool `gorm:"not null" json:"is_active"`
	// Permissions is the resource to CRUD matrix stored as JSON.
	Permissions permission.Matrix `gorm:"serializer:json;type:text" json:"permissions"`
	// CompanyID scopes the role to a tenant. Nil means a system role.
	CompanyID *string `gorm:"uniqueIndex:idx_role_company_name;size:36" json:"company_id,omitempty"`
	// Version is incremented on every matrix write and guards against lost updates.
	Version int64 `gorm:"not null;default:0" json:"version"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

// HomeDomain is the domain the role's matrix applies to.
func (r *Role) HomeDomain() string {
	if r.CompanyID == nil || *r.CompanyID == "" {
		return permission.DomainAll
	}

	return permission.CompanyDomain(*r.CompanyID)
}
