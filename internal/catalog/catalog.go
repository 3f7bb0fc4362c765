// Package catalog manages the permission catalog: the named resource:action pairs
// administrators can grant. Catalog entries are metadata only; role rows and user
// overrides reference resources by name and survive deactivation or deletion of an entry.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

// Invalidator is notified after every successful catalog mutation.
type Invalidator interface {
	InvalidateCatalog(ctx context.Context)
}

// Store persists catalog entries.
type Store struct {
	db          *gorm.DB
	invalidator Invalidator
}

// CreateInput describes a new catalog entry.
type CreateInput struct {
	Name        string `json:"name"         validate:"required,max=150"`
	DisplayName string `json:"display_name" validate:"max=150"`
	Description string `json:"description"  validate:"max=255"`
}

// UpdateFields lists the mutable fields of an entry. Nil fields are left unchanged.
type UpdateFields struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=150"`
	Description *string `json:"description"  validate:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active"`
}

// New returns a Store. inv may be nil.
func New(db *gorm.DB, inv Invalidator) *Store {
	return &Store{db: db, invalidator: inv}
}

// List returns the catalog ordered by name.
func (s *Store) List(ctx context.Context, includeInactive bool) ([]models.Permission, error) {
	var out []models.Permission

	q := s.db.WithContext(ctx).Order("name")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	return out, nil
}

// Get returns the entry called name.
func (s *Store) Get(ctx context.Context, name string) (*models.Permission, error) {
	return getByName(s.db.WithContext(ctx), name)
}

// Create adds an active entry. The resource and action are parsed from the name.
func (s *Store) Create(ctx context.Context, in CreateInput) (*models.Permission, error) {
	var created *models.Permission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		created, err = create(tx, in)

		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("permission", created.Name).Msg("catalog entry created")
	s.invalidate(ctx)

	return created, nil
}

// Update changes the display name, description or active flag of an entry.
func (s *Store) Update(ctx context.Context, name string, fields UpdateFields) (*models.Permission, error) {
	var updated *models.Permission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := getByName(tx, name)
		if err != nil {
			return err
		}

		if fields.DisplayName != nil {
			p.DisplayName = strings.TrimSpace(*fields.DisplayName)
		}

		if fields.Description != nil {
			p.Description = *fields.Description
		}

		if fields.IsActive != nil {
			p.IsActive = *fields.IsActive
		}

		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("update catalog entry %q: %w", name, err)
		}

		updated = p

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("permission", updated.Name).Msg("catalog entry updated")
	s.invalidate(ctx)

	return updated, nil
}

// Delete removes an entry. Role rows and overrides naming the same resource are untouched.
func (s *Store) Delete(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).Delete(&models.Permission{})
	if result.Error != nil {
		return fmt.Errorf("delete catalog entry %q: %w", name, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("catalog entry %q: %w", name, permission.ErrNotFound)
	}

	log.Info().Str("permission", name).Msg("catalog entry deleted")
	s.invalidate(ctx)

	return nil
}

// Rename creates newName with the metadata of oldName and deactivates oldName in one
// transaction. Names are never changed in place.
func (s *Store) Rename(ctx context.Context, oldName, newName string) (*models.Permission, error) {
	var created *models.Permission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := getByName(tx, oldName)
		if err != nil {
			return err
		}

		created, err = create(tx, CreateInput{Name: newName, Description: old.Description})
		if err != nil {
			return err
		}

		return tx.Model(old).Update("is_active", false).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("from", oldName).Str("to", created.Name).Msg("catalog entry renamed")
	s.invalidate(ctx)

	return created, nil
}

// Lookup finds the active entry for (resource, action) using the normalizer.
func (s *Store) Lookup(ctx context.Context, resource, action string) (*models.Permission, bool, error) {
	entries, err := s.List(ctx, false)
	if err != nil {
		return nil, false, err
	}

	p, ok := Find(entries, resource, action)

	return p, ok, nil
}

// Find resolves (resource, action) against entries with the normalizer.
func Find(entries []models.Permission, resource, action string) (*models.Permission, bool) {
	matches := permission.Match(entries, resource, action, func(p models.Permission) (string, string) {
		return p.Resource, p.Action
	})
	if len(matches) == 0 {
		return nil, false
	}

	return &matches[0], true
}

func (s *Store) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidateCatalog(ctx)
	}
}

func getByName(db *gorm.DB, name string) (*models.Permission, error) {
	var p models.Permission

	err := db.Where("name = ?", strings.TrimSpace(name)).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("catalog entry %q: %w", name, permission.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("load catalog entry %q: %w", name, err)
	}

	return &p, nil
}

func create(tx *gorm.DB, in CreateInput) (*models.Permission, error) {
	name := strings.TrimSpace(in.Name)

	resource, action, err := permission.ParseName(name)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := tx.Model(&models.Permission{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check catalog entry %q: %w", name, err)
	}

	if count > 0 {
		return nil, fmt.Errorf("catalog entry %q: %w", name, permission.ErrDuplicateName)
	}

	display := strings.TrimSpace(in.DisplayName)
	if display == "" {
		display = name
	}

	p := &models.Permission{
		Name:        name,
		Resource:    resource,
		Action:      action,
		DisplayName: display,
		Description: in.Description,
		IsActive:    true,
	}

	if err := tx.Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("catalog entry %q: %w", name, permission.ErrDuplicateName)
		}

		return nil, fmt.Errorf("create catalog entry %q: %w", name, err)
	}

	return p, nil
}
