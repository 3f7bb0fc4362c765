// Package models contains database model definitions.
package models

// Setting is a named value kept in the database, e.g. the applied seed revision.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:100"`
	Value []byte
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&Setting{},
		&Permission{},
		&Role{},
		&RolePermission{},
		&UserPermissionOverride{},
	}
}
