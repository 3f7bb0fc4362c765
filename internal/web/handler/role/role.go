// Package role serves the role API. Role permissions are only written through the
// coordinator, either as a whole matrix or one grant at a time.
package role

import (
	"github.com/gofiber/fiber/v3"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/coordinator"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler"
)

const (
	// Path is the route prefix of the role API.
	Path = "/roles"

	resource = "roles"
)

// Service is the role handler service.
type Service struct {
	handler.Service
	coordinator *coordinator.Coordinator
}

// MatrixRequest replaces the whole permission matrix of a role.
type MatrixRequest struct {
	Domain      string            `json:"domain"`
	Permissions permission.Matrix `json:"permissions" validate:"required"`
}

// GrantRequest flips one flag of a role matrix.
type GrantRequest struct {
	Resource string `json:"resource" validate:"required,max=100"`
	Action   string `json:"action"   validate:"required,oneof=create read update delete"`
	Enabled  bool   `json:"enabled"`
	Domain   string `json:"domain"`
}

// Init registers the role routes.
func (s *Service) Init(router fiber.Router, deps handler.Deps) error {
	if router == nil || deps.Coordinator == nil {
		return handler.ErrNilDeps
	}

	s.coordinator = deps.Coordinator

	group := router.Group(Path)
	group.Get("/", deps.Require(resource, permission.ActionRead), s.List)
	group.Post("/", deps.Require(resource, permission.ActionCreate), s.Create)
	group.Get("/:id", deps.Require(resource, permission.ActionRead), s.Get)
	group.Get("/:id/rows", deps.Require(resource, permission.ActionRead), s.Rows)
	group.Put("/:id/permissions", deps.Require(resource, permission.ActionUpdate), s.ReplaceMatrix)
	group.Post("/:id/grants", deps.Require(resource, permission.ActionUpdate), s.SetGrant)

	return nil
}

// List returns every role.
func (s *Service) List(c fiber.Ctx) error {
	roles, err := s.coordinator.Roles(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(roles)
}

// Create adds a role with an empty matrix.
func (s *Service) Create(c fiber.Ctx) error {
	var in coordinator.RoleInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	role, err := s.coordinator.CreateRole(c.Context(), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

// Get returns one role.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	role, err := s.coordinator.Role(c.Context(), uint(id))
	if err != nil {
		return err
	}

	return c.JSON(role)
}

// Rows returns the persisted rows of a role, inactive ones included.
func (s *Service) Rows(c fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	if _, err := s.coordinator.Role(c.Context(), uint(id)); err != nil {
		return err
	}

	rows, err := s.coordinator.Rows(c.Context(), uint(id))
	if err != nil {
		return err
	}

	return c.JSON(rows)
}

// ReplaceMatrix stores a complete matrix and returns the committed role.
func (s *Service) ReplaceMatrix(c fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	var in MatrixRequest
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	role, err := s.coordinator.ReplaceMatrix(c.Context(), uint(id), in.Permissions, in.Domain)
	if err != nil {
		return err
	}

	return c.JSON(role)
}

// SetGrant flips one flag and returns the committed role.
func (s *Service) SetGrant(c fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	var in GrantRequest
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	role, err := s.coordinator.SetGrant(c.Context(), uint(id), in.Resource, in.Action, in.Enabled, in.Domain)
	if err != nil {
		return err
	}

	return c.JSON(role)
}
