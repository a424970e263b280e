package server

import (
	"socialdeck/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/profile
func (s *Server) GetProfile(c *fiber.Ctx) error {
	view, err := s.profileService.View(c.UserContext(), currentSession(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(view)
}

// UpdateProfile handles PUT /api/profile
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var in models.ProfileDetailsInput
	if err := parseBody(c, &in); err != nil {
		return models.Respond(c, err)
	}

	view, err := s.profileService.UpdateDetails(c.UserContext(), currentSession(c), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(withNotice(view, "Profile saved"))
}

// ToggleTrait handles POST /api/profile/traits/:trait
func (s *Server) ToggleTrait(c *fiber.Ctx) error {
	view, err := s.profileService.ToggleTrait(c.UserContext(), currentSession(c), c.Params("trait"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(view)
}

// SetAvatarField handles PUT /api/profile/avatar/:field
func (s *Server) SetAvatarField(c *fiber.Ctx) error {
	var req struct {
		Value string `json:"value"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.Respond(c, err)
	}

	view, err := s.profileService.SetAvatarStyleField(c.UserContext(), currentSession(c), c.Params("field"), req.Value)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(view)
}

// GetCatalog handles GET /api/profile/catalog
func (s *Server) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"avatar":     s.catalog.Avatar,
		"fields":     models.StyleFields,
		"traits":     s.catalog.Traits,
		"max_traits": models.MaxTraits,
	})
}
