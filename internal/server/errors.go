package server

import (
	"errors"
	"time"

	"mess-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(k apperror.Kind) int {
	switch k {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindWindowClosed:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler renders every handler error as {"message": ...}. Storage
// failures are logged with detail and rendered opaque unless exposeDetail.
func errorHandler(log zerolog.Logger, exposeDetail bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		var ae *apperror.Error
		if !errors.As(err, &ae) {
			log.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
			body := fiber.Map{"message": "Unexpected server error"}
			if exposeDetail {
				body["error"] = err.Error()
			}
			return c.Status(fiber.StatusInternalServerError).JSON(body)
		}

		status := statusFor(ae.Kind)
		body := fiber.Map{"message": ae.Message}

		switch ae.Kind {
		case apperror.KindStorage:
			log.Error().Err(ae.Err).Str("path", c.Path()).Str("op", ae.Message).Msg("storage failure")
			body["message"] = "Request failed, please try again later"
			if exposeDetail {
				body["error"] = ae.Error()
			}
		case apperror.KindWindowClosed:
			if ae.Window != nil {
				if !ae.Window.Opens.IsZero() {
					body["opens_at"] = ae.Window.Opens.Format(time.RFC3339)
				}
				body["closes_at"] = ae.Window.Closes.Format(time.RFC3339)
			}
		}
		return c.Status(status).JSON(body)
	}
}
