package server

import (
	"socialdeck/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListConnections handles GET /api/connections
func (s *Server) ListConnections(c *fiber.Ctx) error {
	list, err := s.connectionService.List(c.UserContext(), currentSession(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(list)
}

// ToggleConnection handles POST /api/connections/:platform/toggle
func (s *Server) ToggleConnection(c *fiber.Ctx) error {
	list, err := s.connectionService.Toggle(c.UserContext(), currentSession(c), c.Params("platform"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(list)
}
