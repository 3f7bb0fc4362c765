package authz

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/cache"
)

// InvalidateRole drops the cached snapshot of a role, here and on every other instance.
func (s *Service) InvalidateRole(ctx context.Context, roleID uint) {
	s.roleCache.Invalidate(roleKey(roleID))
	s.publish(ctx, cache.KindRole, strconv.FormatUint(uint64(roleID), 10))
}

// InvalidateUser drops the cached overrides of a user, here and on every other instance.
func (s *Service) InvalidateUser(ctx context.Context, userID uint64) {
	s.userCache.Invalidate(userKey(userID))
	s.publish(ctx, cache.KindUser, strconv.FormatUint(userID, 10))
}

// InvalidateCatalog drops the cached catalog, here and on every other instance.
func (s *Service) InvalidateCatalog(ctx context.Context) {
	s.catalogCache.Invalidate(catalogKey)
	s.publish(ctx, cache.KindCatalog, "")
}

// Listen applies invalidations published by other instances until ctx is done.
func (s *Service) Listen(ctx context.Context) error {
	return s.bus.Listen(ctx, s.apply) //nolint:wrapcheck
}

// apply handles a remote invalidation without publishing it again.
func (s *Service) apply(ev cache.Event) {
	switch ev.Kind {
	case cache.KindRole:
		s.roleCache.Invalidate("role:" + ev.ID)
	case cache.KindUser:
		s.userCache.Invalidate("user:" + ev.ID)
	case cache.KindCatalog:
		s.catalogCache.Invalidate(catalogKey)
	default:
		log.Warn().Str("kind", ev.Kind).Str("origin", ev.Origin).Msg("unknown invalidation kind")

		return
	}

	log.Debug().Str("kind", ev.Kind).Str("id", ev.ID).Str("origin", ev.Origin).Msg("remote invalidation applied")
}

func (s *Service) publish(ctx context.Context, kind, id string) {
	if err := s.bus.Publish(ctx, kind, id); err != nil {
		// local state is already fresh, other instances fall back to the ttl
		log.Error().Err(err).Str("kind", kind).Str("id", id).Msg("broadcast invalidation failed")
	}
}
