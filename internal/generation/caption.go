package generation

import (
	"context"
	"strings"

	"socialdeck/internal/models"
)

// Caption timing: five words per segment at 2.5 words per second.
const (
	CaptionWordsPerSegment = 5
	CaptionMsPerWord       = 400
)

// Segment splits text on whitespace into chunks of wordsPerSegment words.
// Each segment covers [StartMs, EndMs), starting where the previous one ended.
func Segment(text string, wordsPerSegment, msPerWord int) []models.CaptionSegment {
	words := strings.Fields(text)
	if len(words) == 0 || wordsPerSegment <= 0 {
		return nil
	}

	segments := make([]models.CaptionSegment, 0, (len(words)+wordsPerSegment-1)/wordsPerSegment)
	start := 0
	for i := 0; i < len(words); i += wordsPerSegment {
		end := i + wordsPerSegment
		if end > len(words) {
			end = len(words)
		}
		chunk := words[i:end]
		stop := start + len(chunk)*msPerWord
		segments = append(segments, models.CaptionSegment{
			Index:   len(segments),
			Text:    strings.Join(chunk, " "),
			StartMs: start,
			EndMs:   stop,
		})
		start = stop
	}
	return segments
}

// CaptionGenerator turns the prompt text into timed caption segments.
type CaptionGenerator struct{}

func NewCaptionGenerator() *CaptionGenerator { return &CaptionGenerator{} }

func (g *CaptionGenerator) Kind() models.ArtifactKind { return models.KindCaption }

func (g *CaptionGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	segments := Segment(req.Prompt, CaptionWordsPerSegment, CaptionMsPerWord)
	return &Result{
		Text:     strings.Join(strings.Fields(req.Prompt), " "),
		Segments: segments,
		Score:    PromptScore(req.Prompt),
	}, nil
}
