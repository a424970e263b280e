package generation

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"socialdeck/internal/models"
)

// ScriptGenerator fills the video script template with the prompt as topic.
type ScriptGenerator struct {
	tmpl *template.Template
}

// NewScriptGenerator parses tmpl. The template sees {{.Topic}}.
func NewScriptGenerator(tmpl string) (*ScriptGenerator, error) {
	t, err := template.New("script").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse script template: %w", err)
	}
	return &ScriptGenerator{tmpl: t}, nil
}

func (g *ScriptGenerator) Kind() models.ArtifactKind { return models.KindScript }

func (g *ScriptGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, struct{ Topic string }{Topic: strings.TrimSpace(req.Prompt)}); err != nil {
		return nil, fmt.Errorf("render script: %w", err)
	}
	return &Result{Text: strings.TrimRight(buf.String(), "\n"), Score: PromptScore(req.Prompt)}, nil
}
