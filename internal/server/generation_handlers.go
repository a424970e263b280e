package server

import (
	"strings"

	"socialdeck/internal/models"

	"github.com/gofiber/fiber/v2"
)

func parseKind(c *fiber.Ctx) (models.ArtifactKind, error) {
	raw := c.Params("kind")
	kind, ok := models.ParseKind(raw)
	if !ok {
		return "", models.NewValidationError("Unsupported content type: " + raw)
	}
	return kind, nil
}

// GenerateArtifact handles POST /api/generate/:kind
func (s *Server) GenerateArtifact(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return models.Respond(c, err)
	}
	var in models.GenerateInput
	if err := parseBody(c, &in); err != nil {
		return models.Respond(c, err)
	}

	artifact, err := s.generationService.Generate(c.UserContext(), currentSession(c), kind, in)
	if err != nil {
		return models.Respond(c, err)
	}
	label := string(kind)
	return c.Status(fiber.StatusCreated).JSON(withNotice(artifact, strings.ToUpper(label[:1])+label[1:]+" generated"))
}

// GetGenerationHistory handles GET /api/generate/:kind
func (s *Server) GetGenerationHistory(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return models.Respond(c, err)
	}
	session := currentSession(c)

	history, err := s.generationService.History(c.UserContext(), session, kind)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"state":   s.generationService.State(session, kind),
		"history": history,
	})
}
