// Package generation holds the content generation backends, one per artifact kind.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"socialdeck/internal/models"
)

// ErrBackend marks a failure reported by a generation backend itself, as
// opposed to a transport error.
var ErrBackend = errors.New("generation backend error")

// Request is a validated generation request.
type Request struct {
	UserID  string
	Prompt  string
	Options map[string]any
}

// Result is what a backend produced. Exactly one of URL, Text or Segments is
// meaningful depending on the kind.
type Result struct {
	URL      string
	Text     string
	Segments []models.CaptionSegment
	Score    int
}

// Generator produces one kind of artifact.
type Generator interface {
	Kind() models.ArtifactKind
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Registry maps each kind to its backend.
type Registry struct {
	generators map[models.ArtifactKind]Generator
}

// NewRegistry registers gens. A later generator for the same kind wins.
func NewRegistry(gens ...Generator) *Registry {
	r := &Registry{generators: make(map[models.ArtifactKind]Generator, len(gens))}
	for _, g := range gens {
		r.generators[g.Kind()] = g
	}
	return r
}

// Get returns the generator for kind.
func (r *Registry) Get(kind models.ArtifactKind) (Generator, error) {
	g, ok := r.generators[kind]
	if !ok {
		return nil, fmt.Errorf("no generator registered for %q", kind)
	}
	return g, nil
}

// PromptScore is the local quality heuristic used when a backend does not
// score its own output: 60 plus 4 points per distinct word, capped at 100.
func PromptScore(prompt string) int {
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(prompt)) {
		seen[w] = struct{}{}
	}
	score := 60 + 4*len(seen)
	if score > 100 {
		score = 100
	}
	return score
}
