// Package authz answers permission questions. It loads role and user snapshots through
// an explicitly invalidated cache and hands them to the pure resolver.
package authz

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/cache"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/catalog"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

const catalogKey = "catalog"

// RoleSource loads roles and their persisted rows.
type RoleSource interface {
	Role(ctx context.Context, roleID uint) (*models.Role, error)
	Rows(ctx context.Context, roleID uint) ([]permission.Row, error)
}

// OverrideSource loads the overrides of a user.
type OverrideSource interface {
	Snapshot(ctx context.Context, userID uint64) ([]permission.Override, error)
}

// CatalogSource lists the permission catalog.
type CatalogSource interface {
	List(ctx context.Context, includeInactive bool) ([]models.Permission, error)
}

// roleSnapshot is the cached view of one role.
type roleSnapshot struct {
	found  bool
	active bool
	matrix permission.Matrix
	rows   []permission.Row
}

// Service evaluates permission requests.
type Service struct {
	roles     RoleSource
	overrides OverrideSource
	catalog   CatalogSource

	roleCache    *cache.Store[roleSnapshot]
	userCache    *cache.Store[[]permission.Override]
	catalogCache *cache.Store[[]models.Permission]

	bus      *cache.Bus
	location *time.Location
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog enables catalog anomaly checks.
func WithCatalog(c CatalogSource) Option {
	return func(s *Service) { s.catalog = c }
}

// WithCache keeps up to size snapshots per kind for at most ttl.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		s.roleCache = cache.New[roleSnapshot]("role", size, ttl)
		s.userCache = cache.New[[]permission.Override]("user", size, ttl)
		s.catalogCache = cache.New[[]models.Permission]("catalog", 1, ttl)
	}
}

// WithBus broadcasts local invalidations to other instances.
func WithBus(b *cache.Bus) Option {
	return func(s *Service) { s.bus = b }
}

// WithLocation sets the time zone time windows are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service. Without WithCache every request reads the database.
func New(roles RoleSource, overrides OverrideSource, opts ...Option) *Service {
	s := &Service{
		roles:     roles,
		overrides: overrides,
		location:  time.UTC,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Evaluate decides one request. When permission data cannot be loaded the decision is a
// deny and the error is returned alongside it.
func (s *Service) Evaluate(ctx context.Context, req permission.Request) (permission.Decision, error) {
	out, err := s.EvaluateAll(ctx, req, []string{req.Action})

	return out[req.Action], err
}

// EvaluateAll decides req for each of actions against one snapshot.
func (s *Service) EvaluateAll(
	ctx context.Context, req permission.Request, actions []string,
) (map[string]permission.Decision, error) {
	start := time.Now()
	defer func() { evalDuration.Observe(time.Since(start).Seconds()) }()

	req = s.prepare(req)
	out := make(map[string]permission.Decision, len(actions))

	snap, notes, err := s.snapshot(ctx, req.UserID, req.RoleID)
	if err != nil {
		failures.Inc()
		log.Error().Err(err).Uint64("user", req.UserID).Uint("role", req.RoleID).Msg("permission data unavailable, denying")

		for _, action := range actions {
			out[action] = permission.Decision{
				Matched: permission.RuleRef{Kind: permission.MatchNone},
				Reason:  "permission data unavailable",
			}
		}

		return out, err
	}

	for _, action := range actions {
		r := req
		r.Action = action

		d := permission.Evaluate(r, snap)
		d.Anomalies = append(slices.Clone(notes), d.Anomalies...)
		d.Anomalies = append(d.Anomalies, s.catalogAnomalies(ctx, r)...)

		s.record(r, d)
		out[action] = d
	}

	return out, nil
}

// EffectiveMatrix returns the CRUD flags a user ends up with in domain for every resource
// of the role matrix and of the user's overrides.
func (s *Service) EffectiveMatrix(
	ctx context.Context, userID uint64, roleID uint, domain string, now time.Time, clientIP string,
) (permission.Matrix, error) {
	req := s.prepare(permission.Request{UserID: userID, RoleID: roleID, Domain: domain, Now: now, ClientIP: clientIP})

	role, _, err := s.role(ctx, roleID)
	if err != nil {
		return nil, err
	}

	overrides, err := s.userOverrides(ctx, userID)
	if err != nil {
		return nil, err
	}

	resources := role.matrix.Resources()
	for _, o := range overrides {
		if o.IsActive && permission.IsCRUD(o.Action) {
			resources = append(resources, o.Resource)
		}
	}

	out := permission.Matrix{}

	for _, resource := range resources {
		if _, seen := out.Key(resource); seen {
			continue
		}

		r := req
		r.Resource = resource

		decided, err := s.EvaluateAll(ctx, r, permission.CRUDActions)
		if err != nil {
			return nil, err
		}

		out[resource] = permission.CRUD{
			Create: decided[permission.ActionCreate].Allowed,
			Read:   decided[permission.ActionRead].Allowed,
			Update: decided[permission.ActionUpdate].Allowed,
			Delete: decided[permission.ActionDelete].Allowed,
		}
	}

	return out, nil
}

func (s *Service) prepare(req permission.Request) permission.Request {
	if req.Now.IsZero() {
		req.Now = s.now()
	}

	req.Now = req.Now.In(s.location)
	req.Domain = permission.NormalizeDomain(req.Domain)

	return req
}

// snapshot assembles the resolver input. notes carries anomalies about the role itself.
func (s *Service) snapshot(ctx context.Context, userID uint64, roleID uint) (permission.Snapshot, []string, error) {
	var snap permission.Snapshot

	overrides, err := s.userOverrides(ctx, userID)
	if err != nil {
		return snap, nil, err
	}

	role, notes, err := s.role(ctx, roleID)
	if err != nil {
		return snap, nil, err
	}

	// cached slices are shared between requests
	snap.Overrides = slices.Clone(overrides)
	snap.Rows = slices.Clone(role.rows)

	return snap, notes, nil
}

func (s *Service) role(ctx context.Context, roleID uint) (roleSnapshot, []string, error) {
	if roleID == 0 {
		return roleSnapshot{}, nil, nil
	}

	role, err := s.roleCache.Get(ctx, roleKey(roleID), func(ctx context.Context) (roleSnapshot, error) {
		return s.loadRole(ctx, roleID)
	})
	if err != nil {
		return roleSnapshot{}, nil, err
	}

	switch {
	case !role.found:
		return roleSnapshot{}, []string{fmt.Sprintf("role %d does not exist", roleID)}, nil
	case !role.active:
		return roleSnapshot{}, []string{fmt.Sprintf("role %d is inactive", roleID)}, nil
	default:
		return role, nil, nil
	}
}

func (s *Service) loadRole(ctx context.Context, roleID uint) (roleSnapshot, error) {
	role, err := s.roles.Role(ctx, roleID)
	if errors.Is(err, permission.ErrNotFound) {
		return roleSnapshot{}, nil
	}

	if err != nil {
		return roleSnapshot{}, err //nolint:wrapcheck
	}

	rows, err := s.roles.Rows(ctx, roleID)
	if err != nil {
		return roleSnapshot{}, err //nolint:wrapcheck
	}

	return roleSnapshot{found: true, active: role.IsActive, matrix: role.Permissions.Clone(), rows: rows}, nil
}

func (s *Service) userOverrides(ctx context.Context, userID uint64) ([]permission.Override, error) {
	if userID == 0 {
		return nil, nil
	}

	return s.userCache.Get(ctx, userKey(userID), func(ctx context.Context) ([]permission.Override, error) {
		return s.overrides.Snapshot(ctx, userID)
	})
}

// catalogAnomalies reports requests for permissions the catalog does not know.
// A failing catalog never changes the decision.
func (s *Service) catalogAnomalies(ctx context.Context, req permission.Request) []string {
	if s.catalog == nil {
		return nil
	}

	entries, err := s.catalogCache.Get(ctx, catalogKey, func(ctx context.Context) ([]models.Permission, error) {
		return s.catalog.List(ctx, true)
	})
	if err != nil {
		log.Warn().Err(err).Msg("catalog unavailable for anomaly check")

		return nil
	}

	entry, ok := catalog.Find(entries, req.Resource, req.Action)
	switch {
	case !ok:
		return []string{fmt.Sprintf("%s:%s is not in the catalog", req.Resource, req.Action)}
	case !entry.IsActive:
		return []string{fmt.Sprintf("catalog entry %s is inactive", entry.Name)}
	default:
		return nil
	}
}

func (s *Service) record(req permission.Request, d permission.Decision) {
	decisions.WithLabelValues(strconv.FormatBool(d.Allowed), string(d.Matched.Kind)).Inc()

	if len(d.Anomalies) == 0 {
		return
	}

	anomalies.Add(float64(len(d.Anomalies)))

	log.Warn().
		Uint64("user", req.UserID).
		Uint("role", req.RoleID).
		Str("resource", req.Resource).
		Str("action", req.Action).
		Str("domain", req.Domain).
		Bool("allowed", d.Allowed).
		Strs("anomalies", d.Anomalies).
		Msg("permission anomaly")
}

func roleKey(id uint) string    { return "role:" + strconv.FormatUint(uint64(id), 10) }
func userKey(id uint64) string { return "user:" + strconv.FormatUint(id, 10) }
