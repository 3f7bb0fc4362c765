package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Kinds of the API layer itself.
const (
	// KindUnauthorized is reported for missing or unknown API tokens.
	KindUnauthorized = "unauthorized"
	// KindForbidden is reported when the API role lacks the route's permission.
	KindForbidden = "forbidden"
)

// ErrorHandler renders err as an ErrorResponse. Domain errors are mapped by kind,
// fiber errors keep their status.
func ErrorHandler(c fiber.Ctx, err error) error {
	status, kind := Classify(err)

	msg := err.Error()
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")

		if kind == permission.KindInternal {
			msg = "internal error"
		}
	}

	return c.Status(status).JSON(ErrorResponse{Error: kind, Message: msg})
}

// Classify returns the HTTP status and error kind for err.
func Classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return fe.Code, permission.KindNotFound
		case fiber.StatusUnauthorized:
			return fe.Code, KindUnauthorized
		case fiber.StatusForbidden:
			return fe.Code, KindForbidden
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
			return fe.Code, permission.KindValidation
		case fiber.StatusConflict:
			return fe.Code, permission.KindConflict
		default:
			if fe.Code < fiber.StatusInternalServerError {
				return fe.Code, permission.KindValidation
			}

			return fe.Code, permission.KindInternal
		}
	}

	switch kind := permission.Kind(err); kind {
	case permission.KindNotFound:
		return fiber.StatusNotFound, kind
	case permission.KindDuplicateName, permission.KindConflict:
		return fiber.StatusConflict, kind
	case permission.KindValidation:
		return fiber.StatusBadRequest, kind
	default:
		return fiber.StatusInternalServerError, kind
	}
}
