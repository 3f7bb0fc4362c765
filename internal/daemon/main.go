// Package daemon wires the database, the permission services, the cache bus and the
// web service into one runnable process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/authz"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/cache"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/catalog"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/coordinator"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/override"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler"
)

// Services are the permission services wired on one database.
type Services struct {
	DB   *gorm.DB
	Deps handler.Deps
}

// Open connects and migrates the database and wires the services. Writes through
// Deps invalidate the decision cache of Deps.Authz.
func Open(cfg *config.Config, opts ...authz.Option) (*Services, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if err := ensureSQLiteDir(cfg.DB); err != nil {
		return nil, err
	}

	gdb, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if err := db.Migrate(gdb); err != nil {
		closeDB(gdb)

		return nil, err //nolint:wrapcheck
	}

	loc, err := cfg.Resolver.Location()
	if err != nil {
		closeDB(gdb)

		return nil, pkgerrors.Wrap(err, "resolver time zone")
	}

	base := []authz.Option{authz.WithLocation(loc), authz.WithCatalog(catalog.New(gdb, nil))}
	if cfg.Cache.Enabled {
		base = append(base, authz.WithCache(cfg.Cache.Size, cfg.Cache.TTL))
	}

	// the service reads through its own store instances, writers notify it
	svc := authz.New(coordinator.New(gdb), override.New(gdb, nil), append(base, opts...)...)

	return &Services{
		DB: gdb,
		Deps: handler.Deps{
			Catalog:     catalog.New(gdb, svc),
			Coordinator: coordinator.New(gdb, coordinator.WithInvalidator(svc)),
			Overrides:   override.New(gdb, svc),
			Authz:       svc,
		},
	}, nil
}

// Close closes the database.
func (s *Services) Close() {
	closeDB(s.DB)
}

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	services   *Services
	redis      *redis.Client
	webService *web.Service
}

// New prepares the daemon: database, seed data, invalidation bus and web service.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	d := &Daemon{cfg: cfg}

	var opts []authz.Option

	if cfg.Cache.Enabled && cfg.Cache.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Cache.Redis)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		d.redis = client
		opts = append(opts, authz.WithBus(cache.NewBus(client, cfg.Cache.Redis.Channel)))
	}

	services, err := Open(cfg, opts...)
	if err != nil {
		d.Close()

		return nil, err
	}

	d.services = services

	if err := seed(ctx, services); err != nil {
		d.Close()

		return nil, err
	}

	apiRole, err := apiRoleID(ctx, cfg.Auth.Role, services)
	if err != nil {
		d.Close()

		return nil, err
	}

	if d.webService, err = web.New(cfg, services.Deps, apiRole); err != nil {
		d.Close()

		return nil, pkgerrors.Wrap(err, "init web service")
	}

	return d, nil
}

// Run serves the API until SIGINT or SIGTERM and shuts down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.services.Deps.Authz.Listen(ctx); err != nil {
		return pkgerrors.Wrap(err, "listen for cache invalidations")
	}

	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)
	served := make(chan error, 1)

	go func() {
		served <- d.webService.Start(addr)
	}()

	log.Info().Str("addr", addr).Str("url", d.cfg.Webserver.URL).Msg("permission api started")

	select {
	case err := <-served:
		return pkgerrors.Wrap(err, "web service")
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
		d.webService.Shutdown()

		return nil
	}
}

// Close releases the database and redis connections.
func (d *Daemon) Close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}

		d.redis = nil
	}

	if d.services != nil {
		d.services.Close()
		d.services = nil
	}
}

// apiRoleID finds the system role named name. An empty name yields zero.
func apiRoleID(ctx context.Context, name string, s *Services) (uint, error) {
	if name == "" {
		return 0, nil
	}

	roles, err := s.Deps.Coordinator.Roles(ctx)
	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	for _, r := range roles {
		if r.Name == name && r.CompanyID == nil {
			log.Info().Str("role", name).Uint("id", r.ID).Msg("api calls are authorized by role")

			return r.ID, nil
		}
	}

	return 0, pkgerrors.Wrapf(permission.ErrNotFound, "api role %q", name)
}

func ensureSQLiteDir(cfg config.DB) error {
	if cfg.GormEngine != config.EngineSQLite && cfg.GormEngine != "" {
		return nil
	}

	if cfg.Path == "" || cfg.Path == ":memory:" {
		return nil
	}

	return pkgerrors.Wrap(os.MkdirAll(filepath.Dir(cfg.Path), 0o750), "create sqlite directory") //nolint:mnd
}

func closeDB(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("close database")
	}
}
