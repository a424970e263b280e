package server

import (
	"socialdeck/internal/models"

	"github.com/gofiber/fiber/v2"
)

// maxTimeSeriesDays bounds the ?days= window.
const maxTimeSeriesDays = 90

// GetSummary handles GET /api/analytics/summary
func (s *Server) GetSummary(c *fiber.Ctx) error {
	agg, err := s.scheduleService.Aggregate(c.UserContext(), currentSession(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(agg)
}

// GetTimeSeries handles GET /api/analytics/timeseries?days=
func (s *Server) GetTimeSeries(c *fiber.Ctx) error {
	days := c.QueryInt("days", 0)
	if days > maxTimeSeriesDays {
		days = maxTimeSeriesDays
	}

	points, err := s.scheduleService.TimeSeries(c.UserContext(), currentSession(c), days)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(points)
}

// GetBreakdown handles GET /api/analytics/breakdown
func (s *Server) GetBreakdown(c *fiber.Ctx) error {
	b, err := s.scheduleService.Breakdown(c.UserContext(), currentSession(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(b)
}
