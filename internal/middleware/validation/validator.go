package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const maxBodySize = 1 << 20

// RequireJSON rejects mutating requests whose content type is not JSON.
func RequireJSON() fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := c.Method()
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch {
			return c.Next()
		}

		contentType := string(c.Request().Header.ContentType())
		if !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "content type must be application/json",
			})
		}

		if len(c.Body()) > maxBodySize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "request body too large",
			})
		}

		return c.Next()
	}
}

// SessionIDParam validates the :id path parameter.
func SessionIDParam(c *fiber.Ctx) (string, bool) {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" || len(id) > 128 {
		return "", false
	}
	return id, true
}
