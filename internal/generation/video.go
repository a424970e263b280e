package generation

import (
	"context"

	"socialdeck/internal/catalog"
	"socialdeck/internal/models"
)

// Scores reported by the video lookup.
const (
	videoMatchScore    = 90
	videoFallbackScore = 60
)

// VideoGenerator picks a stock clip by keyword.
type VideoGenerator struct {
	cat *catalog.Catalog
}

func NewVideoGenerator(cat *catalog.Catalog) *VideoGenerator {
	return &VideoGenerator{cat: cat}
}

func (g *VideoGenerator) Kind() models.ArtifactKind { return models.KindVideo }

func (g *VideoGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	url, matched := g.cat.VideoFor(req.Prompt)
	score := videoFallbackScore
	if matched {
		score = videoMatchScore
	}
	return &Result{URL: url, Score: score}, nil
}
