package daemon

import (
	"context"
	"errors"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/catalog"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/coordinator"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/controller/setting"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

const (
	seedSetting  = "seed_revision"
	seedRevision = 1

	// AdminRole is the system role seeded with every built-in permission.
	AdminRole = "admin"
)

// builtinResources are the resources of the admin API itself.
var builtinResources = []string{"permissions", "roles", "overrides", "users"} //nolint:gochecknoglobals

// seed creates the built-in catalog and the admin role once per revision.
func seed(ctx context.Context, s *Services) error {
	applied, err := appliedRevision(ctx, s)
	if err != nil {
		return err
	}

	if applied >= seedRevision {
		log.Debug().Int("revision", applied).Msg("seed data up to date")

		return nil
	}

	matrix := permission.Matrix{}

	for _, resource := range builtinResources {
		for _, action := range permission.CRUDActions {
			name := resource + ":" + action

			_, err := s.Deps.Catalog.Create(ctx, catalog.CreateInput{Name: name, Description: action + " " + resource})
			if err != nil && !errors.Is(err, permission.ErrDuplicateName) {
				return pkgerrors.Wrapf(err, "seed catalog entry %s", name)
			}

			if err := matrix.Set(resource, action, true); err != nil {
				return pkgerrors.Wrap(err, "seed admin matrix")
			}
		}
	}

	role, err := s.Deps.Coordinator.CreateRole(ctx, coordinator.RoleInput{
		Name:        AdminRole,
		Description: "Full access to the permission administration",
	})

	switch {
	case errors.Is(err, permission.ErrDuplicateName):
		log.Info().Str("role", AdminRole).Msg("admin role exists, leaving its permissions untouched")
	case err != nil:
		return pkgerrors.Wrap(err, "seed admin role")
	default:
		if _, err := s.Deps.Coordinator.ReplaceMatrix(ctx, role.ID, matrix, ""); err != nil {
			return pkgerrors.Wrap(err, "seed admin permissions")
		}
	}

	if err := setting.Set(ctx, s.DB, seedSetting, []byte(strconv.Itoa(seedRevision))); err != nil {
		return pkgerrors.Wrap(err, "store seed revision")
	}

	log.Info().Int("revision", seedRevision).Msg("seed data applied")

	return nil
}

func appliedRevision(ctx context.Context, s *Services) (int, error) {
	raw, err := setting.Get(ctx, s.DB, seedSetting)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return 0, nil
	}

	if err != nil {
		return 0, pkgerrors.Wrap(err, "read seed revision")
	}

	rev, err := strconv.Atoi(string(raw))
	if err != nil {
		log.Warn().Str("value", string(raw)).Msg("unreadable seed revision, seeding again")

		return 0, nil
	}

	return rev, nil
}
