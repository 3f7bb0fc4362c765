// Package evaluate serves permission decisions and effective matrices.
package evaluate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/authz"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler"
)

const (
	// Path evaluates one request.
	Path = "/evaluate"
	// EffectivePath returns the effective matrix of a user.
	EffectivePath = "/users/:id/effective"

	resource = "users"
)

// Service is the evaluate handler service.
type Service struct {
	handler.Service
	authz *authz.Service
}

// Request asks for one decision, or one per entry of Actions.
type Request struct {
	UserID   uint64   `json:"user_id"`
	RoleID   uint     `json:"role_id"`
	Resource string   `json:"resource"  validate:"required,max=100"`
	Action   string   `json:"action"    validate:"required_without=Actions,max=50"`
	Actions  []string `json:"actions"   validate:"omitempty,dive,required"`
	Domain   string   `json:"domain"`
	// At is the evaluation time. Defaults to now.
	At *time.Time `json:"at,omitempty"`
	// ClientIP defaults to the caller's address.
	ClientIP string `json:"client_ip" validate:"omitempty,ip"`
}

// BatchResponse answers a request with Actions.
type BatchResponse struct {
	Decisions map[string]permission.Decision `json:"decisions"`
}

// Init registers the evaluate routes.
func (s *Service) Init(router fiber.Router, deps handler.Deps) error {
	if router == nil || deps.Authz == nil {
		return handler.ErrNilDeps
	}

	s.authz = deps.Authz

	router.Post(Path, deps.Require(resource, permission.ActionRead), s.Evaluate)
	router.Get(EffectivePath, deps.Require(resource, permission.ActionRead), s.Effective)

	return nil
}

// Evaluate decides a request.
func (s *Service) Evaluate(c fiber.Ctx) error {
	var in Request
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	if err := permission.ValidateDomain(permission.NormalizeDomain(in.Domain)); err != nil {
		return err
	}

	req := permission.Request{
		UserID:   in.UserID,
		RoleID:   in.RoleID,
		Resource: in.Resource,
		Action:   in.Action,
		Domain:   in.Domain,
		ClientIP: in.ClientIP,
	}

	if in.At != nil {
		req.Now = *in.At
	}

	if req.ClientIP == "" {
		req.ClientIP = c.IP()
	}

	if len(in.Actions) > 0 {
		decisions, err := s.authz.EvaluateAll(c.Context(), req, in.Actions)
		if err != nil {
			return err
		}

		return c.JSON(BatchResponse{Decisions: decisions})
	}

	d, err := s.authz.Evaluate(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(d)
}

// Effective returns the effective CRUD matrix of a user.
func (s *Service) Effective(c fiber.Ctx) error {
	userID, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	var roleID uint64

	if raw := c.Query("role_id"); raw != "" {
		if roleID, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return fmt.Errorf("%w: role_id must be a number", permission.ErrValidation)
		}
	}

	var at time.Time

	if raw := c.Query("at"); raw != "" {
		if at, err = time.Parse(time.RFC3339, raw); err != nil {
			return fmt.Errorf("%w: at must be an RFC 3339 time", permission.ErrValidation)
		}
	}

	domain := permission.NormalizeDomain(c.Query("domain"))
	if err := permission.ValidateDomain(domain); err != nil {
		return err
	}

	m, err := s.authz.EffectiveMatrix(c.Context(), userID, uint(roleID), domain, at, c.IP())
	if err != nil {
		return err
	}

	return c.JSON(m)
}
