package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ArtifactKind is the content type a generation panel produces.
type ArtifactKind string

const (
	KindImage   ArtifactKind = "image"
	KindVideo   ArtifactKind = "video"
	KindScript  ArtifactKind = "script"
	KindCaption ArtifactKind = "caption"
)

// AllKinds lists every generation panel.
var AllKinds = []ArtifactKind{KindImage, KindVideo, KindScript, KindCaption}

// ParseKind normalizes raw and reports whether it names a generation panel.
func ParseKind(raw string) (ArtifactKind, bool) {
	k := ArtifactKind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// CaptionSegment is one time-coded subtitle chunk. The range is [StartMs, EndMs).
type CaptionSegment struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
}

// Artifact is a single generated content item.
type Artifact struct {
	ID        string                              `gorm:"primaryKey;size:64" json:"id"`
	UserID    string                              `gorm:"size:64;index" json:"user_id"`
	Kind      ArtifactKind                        `gorm:"size:16;index" json:"kind"`
	Prompt    string                              `gorm:"type:text" json:"prompt"`
	Score     int                                 `json:"score"`
	URL       string                              `gorm:"size:1024" json:"url,omitempty"`
	Text      string                              `gorm:"type:text" json:"text,omitempty"`
	Segments  datatypes.JSONSlice[CaptionSegment] `json:"segments,omitempty"`
	Options   datatypes.JSONMap                   `json:"options,omitempty"`
	CreatedAt time.Time                           `json:"created_at"`
}

// GenerateInput is a generation request from a panel.
type GenerateInput struct {
	Prompt  string         `json:"prompt"`
	Options map[string]any `json:"options,omitempty"`
}

// GenerationState is the panel state of one (user, kind) pair.
type GenerationState string

const (
	StateIdle       GenerationState = "idle"
	StateGenerating GenerationState = "generating"
)
