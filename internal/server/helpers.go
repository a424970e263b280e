package server

import (
	"socialdeck/internal/middleware"
	"socialdeck/internal/models"

	"github.com/gofiber/fiber/v2"
)

// currentSession returns the session set by AuthRequired.
func currentSession(c *fiber.Ctx) models.Session {
	session, _ := middleware.SessionFrom(c)
	return session
}

// parseBody decodes the request body into dst. An empty body leaves dst untouched.
func parseBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// successNotice wraps a payload with a success toast.
type successNotice struct {
	Data   any            `json:"data"`
	Notice *models.Notice `json:"notice"`
}

func withNotice(data any, message string) successNotice {
	return successNotice{Data: data, Notice: models.NewNotice(models.SeveritySuccess, message)}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return models.CodeValidation
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return models.CodeNotFound
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	default:
		return models.CodeInternal
	}
}
