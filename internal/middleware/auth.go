// Package middleware provides authentication, rate limiting, logging, metrics
// and tracing middleware for the HTTP API.
package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"socialdeck/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token issuer and audience accepted by the API.
const (
	TokenIssuer   = "socialdeck-api"
	TokenAudience = "socialdeck-client"
)

// Fiber locals set by the auth middleware.
const (
	LocalSession = "session"
	LocalUserID  = "userID"
)

// ErrInvalidToken is returned for any token that fails validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// BearerToken extracts the token from a "Bearer <token>" Authorization header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// ParseSession validates tokenString and builds the Session from its claims.
func ParseSession(tokenString, secret string) (*models.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	session := &models.Session{UserID: sub}
	if name, ok := claims["name"].(string); ok {
		session.DisplayName = name
	}
	if email, ok := claims["email"].(string); ok {
		session.Email = email
	}
	role, _ := claims["role"].(string)
	session.Role = models.ParseRole(role)
	if jti, ok := claims["jti"].(string); ok {
		session.TokenID = jti
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}

	return session, nil
}

// IssueToken signs a token for session valid for ttl. A new jti is generated.
func IssueToken(secret string, session models.Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   TokenIssuer,
		"aud":   TokenAudience,
		"sub":   session.UserID,
		"name":  session.DisplayName,
		"email": session.Email,
		"role":  string(session.Role),
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// SessionFrom returns the session stored by the auth middleware.
func SessionFrom(c *fiber.Ctx) (models.Session, bool) {
	session, ok := c.Locals(LocalSession).(*models.Session)
	if !ok || session == nil {
		return models.Session{}, false
	}
	return *session, true
}

// RevocationKey is the redis key marking a token id as revoked.
func RevocationKey(jti string) string {
	return "blacklist:" + jti
}
