package server

import (
	"socialdeck/internal/middleware"
	"socialdeck/internal/models"
	"socialdeck/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired returns the authentication middleware. It stores the Session
// and user id in locals and the user id in the request context.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := middleware.BearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		session, err := middleware.ParseSession(tokenString, s.config.JWTSecret)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		// Check JTI for revocation
		if s.sessionService.IsRevoked(c.UserContext(), session.TokenID) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals(middleware.LocalSession, session)
		c.Locals(middleware.LocalUserID, session.UserID)
		// Sync to UserContext for logging and downstream services
		c.SetUserContext(observability.WithUserID(c.UserContext(), session.UserID))

		return c.Next()
	}
}
