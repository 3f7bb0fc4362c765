package auth

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

// Evaluator decides permission requests.
type Evaluator interface {
	Evaluate(ctx context.Context, req permission.Request) (permission.Decision, error)
}

// Require creates middleware that lets a request through only when roleID is granted
// action on resource. Errors of the evaluator fail the request.
func Require(e Evaluator, roleID uint, resource, action string) fiber.Handler {
	return func(c fiber.Ctx) error {
		d, err := e.Evaluate(c.Context(), permission.Request{
			RoleID:   roleID,
			Resource: resource,
			Action:   action,
			ClientIP: c.IP(),
		})
		if err != nil {
			return err //nolint:wrapcheck
		}

		if !d.Allowed {
			log.Warn().Uint("role", roleID).Str("resource", resource).Str("action", action).
				Str("reason", d.Reason).Msg("api role lacks required permission")

			return fiber.NewError(fiber.StatusForbidden, resource+":"+action+" is not granted to the api role")
		}

		return c.Next()
	}
}
