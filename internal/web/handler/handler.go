// Package handler holds what the API handlers share: their dependencies, request
// binding and the mapping of domain errors to HTTP responses.
package handler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/authz"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/catalog"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/coordinator"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/override"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

// ErrNilDeps is returned by Init when the router or a required dependency is missing.
var ErrNilDeps = errors.New("router or dependencies are nil")

// Deps are the services behind the API.
type Deps struct {
	Catalog     *catalog.Store
	Coordinator *coordinator.Coordinator
	Overrides   *override.Store
	Authz       *authz.Service

	// Guard builds the middleware authorizing resource:action. Nil lets every call through.
	Guard func(resource, action string) fiber.Handler
}

// Require returns the Guard middleware for resource:action.
func (d Deps) Require(resource, action string) fiber.Handler {
	if d.Guard == nil {
		return func(c fiber.Ctx) error { return c.Next() }
	}

	return d.Guard(resource, action)
}

// Service is the interface for an API handler service.
type Service interface {
	Init(router fiber.Router, deps Deps) error
}

var validate = validator.New() //nolint:gochecknoglobals

// Bind decodes the JSON body into out and runs its validate tags.
func Bind(c fiber.Ctx, out any) error {
	if err := c.Bind().JSON(out); err != nil {
		return fmt.Errorf("%w: malformed body: %s", permission.ErrValidation, err.Error())
	}

	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %s", permission.ErrValidation, err.Error())
	}

	return nil
}

// ParamID parses a positive numeric path parameter.
func ParamID(c fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number", permission.ErrValidation, name)
	}

	return id, nil
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(c fiber.Ctx, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", permission.ErrValidation, name)
	}

	return v, nil
}
