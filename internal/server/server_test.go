package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialdeck/internal/config"
	"socialdeck/internal/generation"
	"socialdeck/internal/middleware"
	"socialdeck/internal/models"
	"socialdeck/internal/repository"
	"socialdeck/internal/service"
	"socialdeck/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func testConfig(imageURL string) *config.Config {
	return &config.Config{
		JWTSecret:                 testSecret,
		Port:                      "0",
		DBDriver:                  "sqlite",
		Env:                       "test",
		Timezone:                  "UTC",
		ImageGenerationURL:        imageURL,
		GenerationTimeoutSeconds:  5,
		GenerationHistoryLimit:    50,
		BasicGenerationsPerHour:   20,
		PremiumGenerationsPerHour: 200,
		AvatarRenderURL:           "https://avataaars.io/",
		DemoPostCount:             20,
		DemoSeed:                  7,
	}
}

func newTestApp(t *testing.T, imageURL string) *fiber.App {
	t.Helper()
	s, err := NewServerWithDeps(testConfig(imageURL), testutil.NewSQLiteDB(t), nil)
	require.NoError(t, err)
	return s.App()
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, models.Session{
		UserID: userID, DisplayName: "Robin", Email: "robin@example.com", Role: models.RoleBasic,
	}, time.Hour)
	require.NoError(t, err)
	return token
}

func request(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

type noticeEnvelope[T any] struct {
	Data   T             `json:"data"`
	Notice models.Notice `json:"notice"`
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, "")

	resp, _ := request(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := request(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"redis":"disabled"`)

	resp, _ = request(t, app, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t, "")

	resp, body := request(t, app, http.MethodGet, "/api/session/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	errResp := decode[models.ErrorResponse](t, body)
	assert.Equal(t, models.CodeUnauthorized, errResp.Code)
	require.NotNil(t, errResp.Notice)
	assert.Equal(t, models.SeverityInfo, errResp.Notice.Severity)

	resp, _ = request(t, app, http.MethodGet, "/api/session/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := tokenFor(t, "u1")
	resp, body = request(t, app, http.MethodGet, "/api/session/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := decode[models.Session](t, body)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, models.RoleBasic, session.Role)

	resp, _ = request(t, app, http.MethodPost, "/api/session/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = request(t, app, http.MethodGet, "/api/session/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "revoked")
}

func TestPostsAndAnalytics(t *testing.T) {
	app := newTestApp(t, "")
	token := tokenFor(t, "u1")

	resp, body := request(t, app, http.MethodGet, "/api/posts", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	posts := decode[[]models.ScheduledPostView](t, body)
	require.Len(t, posts, 20)
	for _, p := range posts {
		assert.Equal(t, p.Status == models.StatusPublished, p.Engagement != nil, p.ID)
	}

	resp, body = request(t, app, http.MethodGet, "/api/posts?platform=myspace", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[models.ErrorResponse](t, body)
	assert.Equal(t, models.CodeValidation, errResp.Code)
	assert.Equal(t, models.SeverityWarning, errResp.Notice.Severity)

	resp, body = request(t, app, http.MethodGet, "/api/posts?platform=twitter", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, p := range decode[[]models.ScheduledPostView](t, body) {
		assert.Equal(t, models.PlatformTwitter, p.Platform)
	}

	target := posts[0]
	resp, body = request(t, app, http.MethodPut, "/api/posts/"+target.ID, token, map[string]string{"content": "Fresh copy"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Fresh copy", decode[models.ScheduledPostView](t, body).Content)

	resp, _ = request(t, app, http.MethodPut, "/api/posts/missing", token, map[string]string{"content": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	for _, p := range posts {
		if p.Status == models.StatusPublished {
			resp, _ = request(t, app, http.MethodPost, "/api/posts/"+p.ID+"/status", token, map[string]string{"status": "scheduled"})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			continue
		}
		next := models.StatusFailed
		if p.Status == models.StatusFailed {
			next = models.StatusScheduled
		}
		resp, body = request(t, app, http.MethodPost, "/api/posts/"+p.ID+"/status", token, map[string]string{"status": string(next)})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		moved := decode[models.ScheduledPostView](t, body)
		assert.Equal(t, next, moved.Status)
		assert.Nil(t, moved.Engagement)
		break
	}

	resp, _ = request(t, app, http.MethodDelete, "/api/posts/"+target.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = request(t, app, http.MethodDelete, "/api/posts/"+target.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = request(t, app, http.MethodGet, "/api/analytics/breakdown", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 19, decode[models.Breakdown](t, body).Total)

	resp, body = request(t, app, http.MethodGet, "/api/analytics/timeseries?days=3", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.TimeSeriesPoint](t, body), 3)

	resp, _ = request(t, app, http.MethodGet, "/api/analytics/summary", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = request(t, app, http.MethodPost, "/api/posts/generate", token, map[string]int{"count": 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, decode[[]models.ScheduledPostView](t, body), 4)

	// Another user gets their own working set.
	resp, body = request(t, app, http.MethodGet, "/api/posts", tokenFor(t, "u2"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.ScheduledPostView](t, body), 20)
}

func TestProfileEndpoints(t *testing.T) {
	app := newTestApp(t, "")
	token := tokenFor(t, "u1")

	resp, body := request(t, app, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[models.ProfileView](t, body)
	assert.Equal(t, 60, view.Completion)
	assert.Equal(t, "Robin", view.Profile.DisplayName)
	assert.Contains(t, view.AvatarURL, "avataaars.io")

	resp, body = request(t, app, http.MethodPost, "/api/profile/traits/calm", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[models.ProfileView](t, body)
	assert.Equal(t, []string{"calm"}, []string(view.Profile.Traits))
	assert.NotEmpty(t, view.BioSuggestion)

	resp, body = request(t, app, http.MethodPut, "/api/profile/avatar/hair_color", token, map[string]string{"value": "green"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.SeverityWarning, decode[models.ErrorResponse](t, body).Notice.Severity)

	resp, body = request(t, app, http.MethodPut, "/api/profile/avatar/hair_color", token, map[string]string{"value": "red"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[models.ProfileView](t, body).AvatarURL, "hairColor=Red")

	resp, body = request(t, app, http.MethodPut, "/api/profile", token, map[string]string{"bio": "Coffee and code"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decode[noticeEnvelope[models.ProfileView]](t, body)
	assert.Equal(t, 100, saved.Data.Completion)
	assert.Equal(t, models.SeveritySuccess, saved.Notice.Severity)

	resp, body = request(t, app, http.MethodGet, "/api/profile/catalog", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cat := decode[struct {
		Traits    []string `json:"traits"`
		MaxTraits int      `json:"max_traits"`
	}](t, body)
	assert.Len(t, cat.Traits, 10)
	assert.Equal(t, models.MaxTraits, cat.MaxTraits)
}

func TestGenerateEndpoints(t *testing.T) {
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"artifactUrl":"https://img.example/fox.png","score":88}`))
	}))
	defer images.Close()

	app := newTestApp(t, images.URL)
	token := tokenFor(t, "u1")

	resp, body := request(t, app, http.MethodPost, "/api/generate/image", token, map[string]string{"prompt": "red fox"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[noticeEnvelope[models.Artifact]](t, body)
	assert.Equal(t, "https://img.example/fox.png", created.Data.URL)
	assert.Equal(t, 88, created.Data.Score)
	assert.Equal(t, models.SeveritySuccess, created.Notice.Severity)
	assert.Equal(t, "Image generated", created.Notice.Message)
	assert.Equal(t, models.NoticeDismissAfterMs, created.Notice.DismissAfterMs)

	resp, body = request(t, app, http.MethodPost, "/api/generate/image", token, map[string]string{"prompt": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, body).Code)

	resp, _ = request(t, app, http.MethodPost, "/api/generate/podcast", token, map[string]string{"prompt": "hi"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = request(t, app, http.MethodPost, "/api/generate/caption", token, map[string]string{"prompt": "one two three four five six"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, decode[noticeEnvelope[models.Artifact]](t, body).Data.Segments, 2)

	resp, body = request(t, app, http.MethodGet, "/api/generate/image", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[struct {
		State   models.GenerationState `json:"state"`
		History []models.Artifact      `json:"history"`
	}](t, body)
	assert.Equal(t, models.StateIdle, history.State)
	require.Len(t, history.History, 1)
	assert.Equal(t, created.Data.ID, history.History[0].ID)
}

// MockGenerator is a mock of the generation.Generator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Kind() models.ArtifactKind {
	args := m.Called()
	return args.Get(0).(models.ArtifactKind)
}

func (m *MockGenerator) Generate(ctx context.Context, req generation.Request) (*generation.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.Result), args.Error(1)
}

func TestGenerateArtifact_BackendFailure(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Kind").Return(models.KindImage)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(r generation.Request) bool {
		return r.Prompt == "fox" && r.UserID == "u1"
	})).Return(nil, generation.ErrBackend).Once()

	s := &Server{generationService: service.NewGenerationService(
		generation.NewRegistry(gen),
		repository.NewArtifactRepository(testutil.NewSQLiteDB(t), nil, 0),
		service.GenerationOptions{},
	)}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalSession, &models.Session{UserID: "u1"})
		return c.Next()
	})
	app.Post("/generate/:kind", s.GenerateArtifact)

	resp, body := request(t, app, http.MethodPost, "/generate/image", "", map[string]string{"prompt": "fox"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	errResp := decode[models.ErrorResponse](t, body)
	assert.Equal(t, models.CodeNetwork, errResp.Code)
	assert.Equal(t, models.SeverityError, errResp.Notice.Severity)
	gen.AssertExpectations(t)
}

func TestConnectionEndpoints(t *testing.T) {
	app := newTestApp(t, "")
	token := tokenFor(t, "u1")

	resp, body := request(t, app, http.MethodGet, "/api/connections", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]models.PlatformConnection](t, body)
	require.Len(t, list, 4)
	for _, c := range list {
		assert.False(t, c.Connected)
	}

	resp, body = request(t, app, http.MethodPost, "/api/connections/twitter/toggle", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range decode[[]models.PlatformConnection](t, body) {
		assert.Equal(t, c.Platform == models.PlatformTwitter, c.Connected)
	}

	resp, _ = request(t, app, http.MethodPost, "/api/connections/myspace/toggle", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, "")

	resp, body := request(t, app, http.MethodGet, "/api/nope", tokenFor(t, "u1"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, body).Code)
}
