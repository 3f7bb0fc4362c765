package coordinator

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

// Invalidator is notified after a role's matrix and rows were committed.
type Invalidator interface {
	InvalidateRole(ctx context.Context, roleID uint)
}

// Coordinator serializes and applies role permission changes.
type Coordinator struct {
	db          *gorm.DB
	rows        RowWriter
	invalidator Invalidator
	locks       roleLocks

	// beforePersist runs inside the transaction right before the matrix is stored.
	beforePersist func(tx *gorm.DB, role *models.Role)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRowWriter replaces the default gorm row writer.
func WithRowWriter(w RowWriter) Option {
	return func(c *Coordinator) { c.rows = w }
}

// WithInvalidator registers the cache to notify after commits.
func WithInvalidator(inv Invalidator) Option {
	return func(c *Coordinator) { c.invalidator = inv }
}

// New returns a Coordinator writing through db.
func New(db *gorm.DB, opts ...Option) *Coordinator {
	c := &Coordinator{db: db, rows: GormRowWriter{}}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RoleInput describes a new role.
type RoleInput struct {
	Name        string  `json:"name"                 validate:"required,max=100"`
	Description string  `json:"description"          validate:"max=255"`
	CompanyID   *string `json:"company_id,omitempty" validate:"omitempty,uuid"`
}

// CreateRole stores an active role with an empty matrix.
func (c *Coordinator) CreateRole(ctx context.Context, in RoleInput) (*models.Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is empty", permission.ErrValidation)
	}

	if in.CompanyID != nil {
		if _, err := uuid.Parse(*in.CompanyID); err != nil {
			return nil, fmt.Errorf("%w: company id %q is not a uuid", permission.ErrValidation, *in.CompanyID)
		}
	}

	role := &models.Role{
		Name:        name,
		Description: in.Description,
		IsActive:    true,
		Permissions: permission.Matrix{},
		CompanyID:   in.CompanyID,
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Role{}).Where("name = ?", name)
		if in.CompanyID == nil {
			q = q.Where("company_id IS NULL")
		} else {
			q = q.Where("company_id = ?", *in.CompanyID)
		}

		var count int64
		if err := q.Count(&count).Error; err != nil {
			return fmt.Errorf("check role %q: %w", name, err)
		}

		if count > 0 {
			return fmt.Errorf("role %q: %w", name, permission.ErrDuplicateName)
		}

		if err := tx.Create(role).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("role %q: %w", name, permission.ErrDuplicateName)
			}

			return fmt.Errorf("create role %q: %w", name, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("role", role.ID).Str("name", role.Name).Str("domain", role.HomeDomain()).Msg("role created")

	return role, nil
}

// Role loads one role.
func (c *Coordinator) Role(ctx context.Context, roleID uint) (*models.Role, error) {
	return loadRole(c.db.WithContext(ctx), roleID, false)
}

// Roles lists every role ordered by id.
func (c *Coordinator) Roles(ctx context.Context) ([]models.Role, error) {
	var out []models.Role

	if err := c.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return out, nil
}

// Rows returns every persisted row of the role in the resolver's form.
func (c *Coordinator) Rows(ctx context.Context, roleID uint) ([]permission.Row, error) {
	var rows []models.RolePermission

	if err := c.db.WithContext(ctx).Where("role_id = ?", roleID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load rows of role %d: %w", roleID, err)
	}

	out := make([]permission.Row, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToRow())
	}

	return out, nil
}

// SetGrant flips one CRUD flag of the role and regenerates its rows.
// domain may be empty, otherwise it must be the role's home domain.
func (c *Coordinator) SetGrant(
	ctx context.Context, roleID uint, resource, action string, enabled bool, domain string,
) (*models.Role, error) {
	return c.apply(ctx, roleID, domain, func(m permission.Matrix) (permission.Matrix, error) {
		if err := m.Set(resource, action, enabled); err != nil {
			return nil, err
		}

		return m, nil
	})
}

// ReplaceMatrix stores matrix as the role's complete grant set and regenerates its rows.
func (c *Coordinator) ReplaceMatrix(
	ctx context.Context, roleID uint, matrix permission.Matrix, domain string,
) (*models.Role, error) {
	if err := matrix.Validate(); err != nil {
		return nil, err
	}

	return c.apply(ctx, roleID, domain, func(permission.Matrix) (permission.Matrix, error) {
		return matrix.Clone(), nil
	})
}

func (c *Coordinator) apply(
	ctx context.Context,
	roleID uint,
	domain string,
	change func(permission.Matrix) (permission.Matrix, error),
) (*models.Role, error) {
	unlock := c.locks.lock(roleID)
	defer unlock()

	var (
		result  *models.Role
		written bool
	)

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := loadRole(tx, roleID, true)
		if err != nil {
			return err
		}

		home := role.HomeDomain()
		if domain != "" && domain != home {
			return fmt.Errorf("%w: role %d grants apply to domain %q, not %q", permission.ErrValidation, roleID, home, domain)
		}

		next, err := change(role.Permissions.Clone())
		if err != nil {
			return err
		}

		matrixChanged := !maps.Equal(next, role.Permissions)

		if matrixChanged {
			if c.beforePersist != nil {
				c.beforePersist(tx, role)
			}

			if err := persistMatrix(tx, role, next); err != nil {
				return err
			}
		}

		rowsChanged, err := syncRows(tx, c.rows, role.ID, home, next)
		if err != nil {
			return fmt.Errorf("%w: role %d: %w", permission.ErrPartialWrite, role.ID, err)
		}

		if rowsChanged && !matrixChanged {
			// rows drifted from an unchanged matrix, still count it as a write
			if err := persistMatrix(tx, role, next); err != nil {
				return err
			}
		}

		written = matrixChanged || rowsChanged
		result = role

		return nil
	})
	if err != nil {
		if k := permission.Kind(err); k != permission.KindValidation && k != permission.KindNotFound {
			log.Warn().Err(err).Uint("role", roleID).Str("kind", k).Msg("role permission change rolled back")
		}

		return nil, err
	}

	if written {
		log.Info().Uint("role", roleID).Int64("version", result.Version).Msg("role permissions committed")

		if c.invalidator != nil {
			c.invalidator.InvalidateRole(ctx, roleID)
		}
	}

	return result, nil
}

// persistMatrix stores m and bumps the version, failing with ErrConflict when another
// writer changed the role since it was loaded.
func persistMatrix(tx *gorm.DB, role *models.Role, m permission.Matrix) error {
	next := role.Version + 1

	res := tx.Model(&models.Role{}).
		Where("id = ? AND version = ?", role.ID, role.Version).
		Select("Permissions", "Version").
		Updates(&models.Role{Permissions: m, Version: next})
	if res.Error != nil {
		return fmt.Errorf("store matrix of role %d: %w", role.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("role %d changed concurrently: %w", role.ID, permission.ErrConflict)
	}

	role.Permissions = m
	role.Version = next

	return nil
}

func loadRole(db *gorm.DB, roleID uint, forUpdate bool) (*models.Role, error) {
	var role models.Role

	q := db
	if forUpdate && db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	err := q.First(&role, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("role %d: %w", roleID, permission.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("load role %d: %w", roleID, err)
	}

	if role.Permissions == nil {
		role.Permissions = permission.Matrix{}
	}

	return &role, nil
}
