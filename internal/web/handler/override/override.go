// Package override serves the user override API.
package override

import (
	"github.com/gofiber/fiber/v3"

	overridestore "github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/override"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler"
)

const (
	// Path is the route prefix of the override API.
	Path = "/users/:id/overrides"

	resource = "overrides"
)

// Service is the override handler service.
type Service struct {
	handler.Service
	store *overridestore.Store
}

// Init registers the override routes.
func (s *Service) Init(router fiber.Router, deps handler.Deps) error {
	if router == nil || deps.Overrides == nil {
		return handler.ErrNilDeps
	}

	s.store = deps.Overrides

	group := router.Group(Path)
	group.Get("/", deps.Require(resource, permission.ActionRead), s.List)
	group.Post("/", deps.Require(resource, permission.ActionCreate), s.Create)
	group.Get("/:oid", deps.Require(resource, permission.ActionRead), s.Get)
	group.Put("/:oid", deps.Require(resource, permission.ActionUpdate), s.Update)
	group.Delete("/:oid", deps.Require(resource, permission.ActionDelete), s.Delete)

	return nil
}

func ids(c fiber.Ctx) (userID uint64, overrideID uint, err error) {
	if userID, err = handler.ParamID(c, "id"); err != nil {
		return 0, 0, err
	}

	oid, err := handler.ParamID(c, "oid")
	if err != nil {
		return 0, 0, err
	}

	return userID, uint(oid), nil
}

// List returns the overrides of a user, newest first.
func (s *Service) List(c fiber.Ctx) error {
	userID, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	overrides, err := s.store.List(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(overrides)
}

// Create adds an override for a user.
func (s *Service) Create(c fiber.Ctx) error {
	userID, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	var in overridestore.Input
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	o, err := s.store.Create(c.Context(), userID, in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(o)
}

// Get returns one override.
func (s *Service) Get(c fiber.Ctx) error {
	userID, oid, err := ids(c)
	if err != nil {
		return err
	}

	o, err := s.store.Get(c.Context(), userID, oid)
	if err != nil {
		return err
	}

	return c.JSON(o)
}

// Update replaces an override.
func (s *Service) Update(c fiber.Ctx) error {
	userID, oid, err := ids(c)
	if err != nil {
		return err
	}

	var in overridestore.Input
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	o, err := s.store.Update(c.Context(), userID, oid, in)
	if err != nil {
		return err
	}

	return c.JSON(o)
}

// Delete removes an override.
func (s *Service) Delete(c fiber.Ctx) error {
	userID, oid, err := ids(c)
	if err != nil {
		return err
	}

	if err := s.store.Delete(c.Context(), userID, oid); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
