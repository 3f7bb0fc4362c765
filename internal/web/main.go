// Package web serves the permission API with fiber.
package web

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/config"
	fiberlog "github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/logger/adapter/fiber"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler/catalog"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler/evaluate"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler/override"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler/role"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/middleware/auth"
)

const (
	// APIPrefix is the route prefix of every API handler.
	APIPrefix = "/api/v1"
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/healthz"
	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start serves on addr until the server is shut down.
func (s *Service) Start(addr string) error {
	err := s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err //nolint:wrapcheck
	}

	return nil
}

// Shutdown fails health checks for ShutDownTime seconds so load balancers drain the
// instance, then stops the server.
func (s *Service) Shutdown() {
	wait := time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second

	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(wait)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.ShutdownWithTimeout(wait); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates the web service and registers every route. When apiRoleID is not zero
// every API route requires its permission to be granted to that role.
func New(cfg *config.Config, deps handler.Deps, apiRoleID uint) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			AppName:       cfg.Title,
			CaseSensitive: true,
			Immutable:     true,
			UnescapePath:  true,
			BodyLimit:     cfg.Webserver.BodyLimit,
			ErrorHandler:  handler.ErrorHandler,
		},
	)

	service := &Service{
		App:          app,
		cfg:          cfg,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		ErrorHandler:  handler.ErrorHandler,
		CheckAliveURI: CheckAlivePath,
	}))

	app.Get(CheckAlivePath, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group(APIPrefix, auth.New(auth.Config{
		Disabled: cfg.Auth.Disabled,
		Hashes:   cfg.Auth.APITokenHashes,
	}))

	if apiRoleID != 0 && deps.Authz != nil {
		deps.Guard = func(resource, action string) fiber.Handler {
			return auth.Require(deps.Authz, apiRoleID, resource, action)
		}
	}

	handlers := []handler.Service{
		&catalog.Service{},
		&role.Service{},
		&override.Service{},
		&evaluate.Service{},
	}

	for _, h := range handlers {
		if err := h.Init(api, deps); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return service, nil
}

func (s *Service) checkAlive(c fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}
