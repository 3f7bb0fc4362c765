package coordinator

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

// RowWriter persists one RolePermission row inside the coordinator's transaction.
type RowWriter interface {
	UpsertRolePermission(tx *gorm.DB, row *models.RolePermission) error
}

// GormRowWriter inserts rows without an id and saves the others.
type GormRowWriter struct{}

// UpsertRolePermission implements RowWriter.
func (GormRowWriter) UpsertRolePermission(tx *gorm.DB, row *models.RolePermission) error {
	if row.ID == 0 {
		return tx.Create(row).Error //nolint:wrapcheck
	}

	return tx.Save(row).Error //nolint:wrapcheck
}

// syncRows makes the role's rows in domain agree with m: every true flag has an active
// allow row, every other matrix managed row is inactive. Existing rows are found with the
// normalizer and reused. Rows are never deleted. It reports whether anything was written.
func syncRows(tx *gorm.DB, w RowWriter, roleID uint, domain string, m permission.Matrix) (bool, error) {
	var existing []models.RolePermission

	err := tx.Where("role_id = ? AND domain = ?", roleID, domain).Order("id").Find(&existing).Error
	if err != nil {
		return false, fmt.Errorf("load rows of role %d: %w", roleID, err)
	}

	byID := make(map[uint]*models.RolePermission, len(existing))
	view := make([]permission.Row, 0, len(existing))

	for i := range existing {
		byID[existing[i].ID] = &existing[i]
		view = append(view, existing[i].ToRow())
	}

	var (
		changed bool
		used    = make(map[uint]bool, len(existing))
	)

	for _, g := range m.Grants() {
		if found, ok := permission.ResolvePersistedRow(view, g.Resource, g.Action); ok {
			used[found.ID] = true

			row := byID[found.ID]
			if row.IsActive && row.Effect == permission.EffectAllow {
				continue
			}

			row.IsActive = true
			row.Effect = permission.EffectAllow

			if err := w.UpsertRolePermission(tx, row); err != nil {
				return changed, fmt.Errorf("activate row %d (%s:%s): %w", row.ID, row.Resource, row.Action, err)
			}

			changed = true

			continue
		}

		row := &models.RolePermission{
			RoleID:   roleID,
			Resource: g.Resource,
			Action:   g.Action,
			Domain:   domain,
			IsActive: true,
			Effect:   permission.EffectAllow,
		}

		if err := w.UpsertRolePermission(tx, row); err != nil {
			return changed, fmt.Errorf("create row %s:%s: %w", g.Resource, g.Action, err)
		}

		changed = true
		byID[row.ID] = row
		used[row.ID] = true
		view = append(view, row.ToRow())
	}

	for i := range existing {
		row := &existing[i]
		if used[row.ID] || !row.IsActive || row.Effect != permission.EffectAllow || !permission.IsCRUD(row.Action) {
			continue
		}

		row.IsActive = false

		if err := w.UpsertRolePermission(tx, row); err != nil {
			return changed, fmt.Errorf("deactivate row %d (%s:%s): %w", row.ID, row.Resource, row.Action, err)
		}

		changed = true
	}

	return changed, nil
}
