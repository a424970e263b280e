package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"socialdeck/internal/generation"
	"socialdeck/internal/models"
	"socialdeck/internal/observability"
	"socialdeck/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultHistoryLimit caps the in-memory history of one (user, kind) panel.
const DefaultHistoryLimit = 50

// GenerationOptions tunes a GenerationService.
type GenerationOptions struct {
	// Timeout bounds every backend attempt.
	Timeout time.Duration
	// Retries is the number of extra attempts after a failure (0 or 1).
	Retries      int
	HistoryLimit int
	Now          func() time.Time
}

type panelKey struct {
	userID string
	kind   models.ArtifactKind
}

// GenerationService runs the content generation panels. Each (user, kind)
// panel is idle or generating; a request while generating is rejected.
type GenerationService struct {
	registry  *generation.Registry
	artifacts repository.ArtifactRepository
	opts      GenerationOptions

	mu      sync.Mutex
	states  map[panelKey]models.GenerationState
	history map[panelKey][]*models.Artifact
	loaded  map[panelKey]bool
}

func NewGenerationService(registry *generation.Registry, artifacts repository.ArtifactRepository, opts GenerationOptions) *GenerationService {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Retries > 1 {
		opts.Retries = 1
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &GenerationService{
		registry:  registry,
		artifacts: artifacts,
		opts:      opts,
		states:    make(map[panelKey]models.GenerationState),
		history:   make(map[panelKey][]*models.Artifact),
		loaded:    make(map[panelKey]bool),
	}
}

// Generate produces one artifact. Blank prompts are rejected before any
// backend call. Persistence failures are logged and do not fail the call.
func (s *GenerationService) Generate(ctx context.Context, session models.Session, kind models.ArtifactKind, in models.GenerateInput) (*models.Artifact, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, models.NewValidationError("Please enter a prompt first")
	}
	gen, err := s.registry.Get(kind)
	if err != nil {
		return nil, models.NewValidationError("Unsupported content type: " + string(kind))
	}

	key := panelKey{userID: session.UserID, kind: kind}
	if !s.begin(key) {
		observability.GenerationRequests.WithLabelValues(string(kind), "in_progress").Inc()
		return nil, models.NewGenerationInProgressError(kind)
	}
	defer s.end(key)

	ctx, span := observability.StartSpan(ctx, "GenerationService", "Generate",
		attribute.String("generation.kind", string(kind)),
		attribute.String("user.id", session.UserID),
	)
	defer span.End()

	done := observability.TrackGeneration(string(kind))
	res, err := s.call(ctx, gen, generation.Request{UserID: session.UserID, Prompt: prompt, Options: in.Options})
	if err != nil {
		observability.RecordError(span, err)
		if errors.Is(err, context.DeadlineExceeded) {
			done("timeout")
			return nil, models.NewNetworkError("Generation timed out, please try again", err)
		}
		done("error")
		return nil, models.NewNetworkError("Generation failed, please try again", err)
	}
	done("success")

	artifact := &models.Artifact{
		ID:        uuid.NewString(),
		UserID:    session.UserID,
		Kind:      kind,
		Prompt:    prompt,
		Score:     res.Score,
		URL:       res.URL,
		Text:      res.Text,
		Segments:  res.Segments,
		Options:   in.Options,
		CreatedAt: s.opts.Now().UTC(),
	}
	s.remember(key, artifact)

	if err := s.artifacts.Create(ctx, artifact); err != nil {
		observability.LogAsyncOperationError(ctx, "generation.persist", err, map[string]interface{}{
			"kind":        string(kind),
			"artifact_id": artifact.ID,
		})
	}
	return artifact, nil
}

// call runs gen under the per-attempt timeout, retrying once when configured.
// A cancelled caller context is not retried.
func (s *GenerationService) call(ctx context.Context, gen generation.Generator, req generation.Request) (*generation.Result, error) {
	var lastErr error
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		res, err := gen.Generate(attemptCtx, req)
		cancel()
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// State reports whether the panel is generating.
func (s *GenerationService) State(session models.Session, kind models.ArtifactKind) models.GenerationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[panelKey{userID: session.UserID, kind: kind}]; ok {
		return st
	}
	return models.StateIdle
}

// History returns the panel's artifacts, most recent first. The first read of
// a panel merges the primary store into memory, so artifacts from before a
// restart stay visible next to new ones.
func (s *GenerationService) History(ctx context.Context, session models.Session, kind models.ArtifactKind) ([]*models.Artifact, error) {
	if _, err := s.registry.Get(kind); err != nil {
		return nil, models.NewValidationError("Unsupported content type: " + string(kind))
	}
	key := panelKey{userID: session.UserID, kind: kind}

	s.mu.Lock()
	loaded := s.loaded[key]
	cached := append([]*models.Artifact{}, s.history[key]...)
	s.mu.Unlock()
	if loaded {
		return cached, nil
	}

	stored, err := s.artifacts.ListRecent(ctx, session.UserID, kind, s.opts.HistoryLimit)
	if err != nil {
		observability.LogAsyncOperationError(ctx, "generation.history", err, map[string]interface{}{"kind": string(kind)})
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.history[key]
	seen := make(map[string]struct{}, len(merged))
	for _, a := range merged {
		seen[a.ID] = struct{}{}
	}
	for _, a := range stored {
		if _, ok := seen[a.ID]; !ok {
			merged = append(merged, a)
		}
	}
	if len(merged) > s.opts.HistoryLimit {
		merged = merged[:s.opts.HistoryLimit]
	}
	s.history[key] = merged
	s.loaded[key] = true
	return append([]*models.Artifact{}, merged...), nil
}

func (s *GenerationService) begin(key panelKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states[key] == models.StateGenerating {
		return false
	}
	s.states[key] = models.StateGenerating
	return true
}

func (s *GenerationService) end(key panelKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = models.StateIdle
}

func (s *GenerationService) remember(key panelKey, a *models.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append([]*models.Artifact{a}, s.history[key]...)
	if len(list) > s.opts.HistoryLimit {
		list = list[:s.opts.HistoryLimit]
	}
	s.history[key] = list
}
