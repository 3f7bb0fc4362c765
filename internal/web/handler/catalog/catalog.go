// Package catalog serves the permission catalog API.
package catalog

import (
	"github.com/gofiber/fiber/v3"

	catalogstore "github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/catalog"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler"
)

const (
	// Path is the route prefix of the catalog API.
	Path = "/catalog"

	resource = "permissions"
)

// Service is the catalog handler service.
type Service struct {
	handler.Service
	store *catalogstore.Store
}

type renameRequest struct {
	Name string `json:"name" validate:"required,max=150"`
}

// Init registers the catalog routes.
func (s *Service) Init(router fiber.Router, deps handler.Deps) error {
	if router == nil || deps.Catalog == nil {
		return handler.ErrNilDeps
	}

	s.store = deps.Catalog

	group := router.Group(Path)
	group.Get("/", deps.Require(resource, permission.ActionRead), s.List)
	group.Post("/", deps.Require(resource, permission.ActionCreate), s.Create)
	group.Patch("/:name", deps.Require(resource, permission.ActionUpdate), s.Update)
	group.Post("/:name/rename", deps.Require(resource, permission.ActionUpdate), s.Rename)
	group.Delete("/:name", deps.Require(resource, permission.ActionDelete), s.Delete)

	return nil
}

// List returns the catalog, inactive entries only when include_inactive is set.
func (s *Service) List(c fiber.Ctx) error {
	includeInactive, err := handler.QueryBool(c, "include_inactive")
	if err != nil {
		return err
	}

	entries, err := s.store.List(c.Context(), includeInactive)
	if err != nil {
		return err
	}

	return c.JSON(entries)
}

// Create adds an entry.
func (s *Service) Create(c fiber.Ctx) error {
	var in catalogstore.CreateInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	entry, err := s.store.Create(c.Context(), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// Update changes the metadata of an entry.
func (s *Service) Update(c fiber.Ctx) error {
	var fields catalogstore.UpdateFields
	if err := handler.Bind(c, &fields); err != nil {
		return err
	}

	entry, err := s.store.Update(c.Context(), c.Params("name"), fields)
	if err != nil {
		return err
	}

	return c.JSON(entry)
}

// Rename replaces an entry with a new name and deactivates the old one.
func (s *Service) Rename(c fiber.Ctx) error {
	var in renameRequest
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	entry, err := s.store.Rename(c.Context(), c.Params("name"), in.Name)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// Delete removes an entry.
func (s *Service) Delete(c fiber.Ctx) error {
	if err := s.store.Delete(c.Context(), c.Params("name")); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
