package apperr

import (
	"errors"

	"shop-backend/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error as {"error": ..., "details": ...}.
// Anything that is neither an *Error nor a *fiber.Error is logged and
// hidden behind a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		body := fiber.Map{"error": ae.Message}
		if len(ae.Details) > 0 {
			body["details"] = ae.Details
		}
		return c.Status(ae.HTTPStatus()).JSON(body)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	logging.FromContext(c.UserContext()).Errorw("unexpected error",
		"method", c.Method(),
		"path", c.Path(),
		"err", err,
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
