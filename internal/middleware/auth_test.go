package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialdeck/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestParseSession(t *testing.T) {
	token, err := IssueToken(testSecret, models.Session{
		UserID:      "user-7",
		DisplayName: "Robin",
		Email:       "robin@example.com",
		Role:        models.RolePremium,
	}, time.Hour)
	require.NoError(t, err)

	session, err := ParseSession(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-7", session.UserID)
	assert.Equal(t, "Robin", session.DisplayName)
	assert.Equal(t, "robin@example.com", session.Email)
	assert.Equal(t, models.RolePremium, session.Role)
	assert.NotEmpty(t, session.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)
}

func TestParseSession_Rejects(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"sub": "u1",
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"malformed", "malformed.token.here", testSecret},
		{"wrong secret", sign(valid()), "another-secret"},
		{"expired", func() string {
			c := valid()
			c["exp"] = time.Now().Add(-time.Hour).Unix()
			return sign(c)
		}(), testSecret},
		{"wrong issuer", func() string {
			c := valid()
			c["iss"] = "someone-else"
			return sign(c)
		}(), testSecret},
		{"wrong audience", func() string {
			c := valid()
			c["aud"] = "other-client"
			return sign(c)
		}(), testSecret},
		{"missing subject", func() string {
			c := valid()
			delete(c, "sub")
			return sign(c)
		}(), testSecret},
		{"missing expiry", func() string {
			c := valid()
			delete(c, "exp")
			return sign(c)
		}(), testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSession(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseSession_UnknownRoleIsBasic(t *testing.T) {
	claims := jwt.MapClaims{
		"iss":  TokenIssuer,
		"aud":  TokenAudience,
		"sub":  "u1",
		"role": "superuser",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	session, err := ParseSession(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBasic, session.Role)
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		tok, ok := BearerToken(c)
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(tok)
	})

	tests := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Bearer abc", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.header)
		_ = resp.Body.Close()
	}
}
