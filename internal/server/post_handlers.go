package server

import (
	"socialdeck/internal/models"

	"github.com/gofiber/fiber/v2"
)

func postViews(posts []*models.ScheduledPost) []models.ScheduledPostView {
	views := make([]models.ScheduledPostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, p.View())
	}
	return views
}

// ListPosts handles GET /api/posts?platform=&status=&q=
func (s *Server) ListPosts(c *fiber.Ctx) error {
	var filter models.PostFilter
	if raw := c.Query("platform"); raw != "" {
		p, ok := models.ParsePlatform(raw)
		if !ok {
			return models.Respond(c, models.NewValidationError("Unsupported platform: "+raw))
		}
		filter.Platform = p
	}
	if raw := c.Query("status"); raw != "" {
		st, ok := models.ParseStatus(raw)
		if !ok {
			return models.Respond(c, models.NewValidationError("Unknown status: "+raw))
		}
		filter.Status = st
	}
	filter.SearchText = c.Query("q")

	posts, err := s.scheduleService.List(c.UserContext(), currentSession(c), filter)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(postViews(posts))
}

// GeneratePosts handles POST /api/posts/generate
func (s *Server) GeneratePosts(c *fiber.Ctx) error {
	var req struct {
		Count int `json:"count"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.Respond(c, err)
	}
	if req.Count < 0 || req.Count > 500 {
		return models.Respond(c, models.NewValidationError("count must be between 0 and 500"))
	}

	posts, err := s.scheduleService.Generate(c.UserContext(), currentSession(c), req.Count)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(postViews(posts))
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var patch models.PostPatch
	if err := parseBody(c, &patch); err != nil {
		return models.Respond(c, err)
	}

	post, err := s.scheduleService.Update(c.UserContext(), currentSession(c), c.Params("id"), patch)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post.View())
}

// TransitionPost handles POST /api/posts/:id/status
func (s *Server) TransitionPost(c *fiber.Ctx) error {
	var req struct {
		Status models.PostStatus `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.Respond(c, err)
	}

	post, err := s.scheduleService.Transition(c.UserContext(), currentSession(c), c.Params("id"), req.Status)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post.View())
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.scheduleService.Remove(c.UserContext(), currentSession(c), c.Params("id")); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
