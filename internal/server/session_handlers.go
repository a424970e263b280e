package server

import (
	"socialdeck/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetSession handles GET /api/session/me
func (s *Server) GetSession(c *fiber.Ctx) error {
	return c.JSON(currentSession(c))
}

// Logout handles POST /api/session/logout. The presented token stays revoked
// until it would have expired.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessionService.Revoke(c.UserContext(), currentSession(c)); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Logged out",
		"notice":  models.NewNotice(models.SeverityInfo, "You have been signed out"),
	})
}
