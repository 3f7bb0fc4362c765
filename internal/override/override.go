// Package override manages user permission overrides. Overrides take effect immediately:
// every write invalidates the user's cached snapshot.
package override

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

// Invalidator is notified after every successful write for a user.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID uint64)
}

// Input is the full writable state of an override.
type Input struct {
	Resource        string                      `json:"resource"                   validate:"required,max=100"`
	Action          string                      `json:"action"                     validate:"required,max=50"`
	IsAllowed       bool                        `json:"is_allowed"`
	Priority        int                         `json:"priority"`
	TimeRestriction *permission.TimeRestriction `json:"time_restriction,omitempty"`
	AllowedIPs      []string                    `json:"allowed_ips,omitempty"      validate:"omitempty,dive,required"`
	// IsActive defaults to true when omitted.
	IsActive *bool `json:"is_active,omitempty"`
}

// Store persists overrides.
type Store struct {
	db          *gorm.DB
	invalidator Invalidator
	validator   *validator.Validate
}

// New returns a Store. inv may be nil.
func New(db *gorm.DB, inv Invalidator) *Store {
	return &Store{db: db, invalidator: inv, validator: validator.New()}
}

// List returns every override of the user, newest first.
func (s *Store) List(ctx context.Context, userID uint64) ([]models.UserPermissionOverride, error) {
	var out []models.UserPermissionOverride

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list overrides of user %d: %w", userID, err)
	}

	return out, nil
}

// Snapshot returns the user's overrides in the resolver's form.
func (s *Store) Snapshot(ctx context.Context, userID uint64) ([]permission.Override, error) {
	rows, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]permission.Override, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToOverride())
	}

	return out, nil
}

// Get returns one override of the user.
func (s *Store) Get(ctx context.Context, userID uint64, id uint) (*models.UserPermissionOverride, error) {
	return get(s.db.WithContext(ctx), userID, id)
}

// Create validates and stores a new override.
func (s *Store) Create(ctx context.Context, userID uint64, in Input) (*models.UserPermissionOverride, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	o := &models.UserPermissionOverride{UserID: userID}
	apply(o, in)

	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, fmt.Errorf("create override for user %d: %w", userID, err)
	}

	log.Info().Uint64("user", userID).Uint("override", o.ID).
		Str("resource", o.Resource).Str("action", o.Action).Bool("allowed", o.IsAllowed).
		Msg("override created")
	s.invalidate(ctx, userID)

	return o, nil
}

// Update replaces the writable state of an override.
func (s *Store) Update(ctx context.Context, userID uint64, id uint, in Input) (*models.UserPermissionOverride, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	var o *models.UserPermissionOverride

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		if o, err = get(tx, userID, id); err != nil {
			return err
		}

		apply(o, in)

		return tx.Save(o).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint64("user", userID).Uint("override", id).Msg("override updated")
	s.invalidate(ctx, userID)

	return o, nil
}

// Delete removes an override.
func (s *Store) Delete(ctx context.Context, userID uint64, id uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.UserPermissionOverride{})
	if result.Error != nil {
		return fmt.Errorf("delete override %d: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("override %d of user %d: %w", id, userID, permission.ErrNotFound)
	}

	log.Info().Uint64("user", userID).Uint("override", id).Msg("override deleted")
	s.invalidate(ctx, userID)

	return nil
}

func (s *Store) validate(in Input) error {
	if err := s.validator.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", permission.ErrValidation, err.Error())
	}

	if strings.TrimSpace(in.Resource) == "" || strings.TrimSpace(in.Action) == "" {
		return fmt.Errorf("%w: resource and action must not be blank", permission.ErrValidation)
	}

	if err := in.TimeRestriction.Validate(); err != nil {
		return err
	}

	return permission.ValidateIPs(in.AllowedIPs)
}

func (s *Store) invalidate(ctx context.Context, userID uint64) {
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(ctx, userID)
	}
}

func apply(o *models.UserPermissionOverride, in Input) {
	o.Resource = strings.TrimSpace(in.Resource)
	o.Action = strings.ToLower(strings.TrimSpace(in.Action))
	o.IsAllowed = in.IsAllowed
	o.Priority = in.Priority
	o.TimeRestriction = in.TimeRestriction
	o.AllowedIPs = in.AllowedIPs
	o.IsActive = in.IsActive == nil || *in.IsActive
}

func get(db *gorm.DB, userID uint64, id uint) (*models.UserPermissionOverride, error) {
	var o models.UserPermissionOverride

	err := db.Where("id = ? AND user_id = ?", id, userID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("override %d of user %d: %w", id, userID, permission.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("load override %d: %w", id, err)
	}

	return &o, nil
}
