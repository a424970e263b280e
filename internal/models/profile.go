package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// MaxTraits caps the number of personality traits on a profile.
const MaxTraits = 5

// Avatar style fields.
const (
	StyleHairstyle   = "hairstyle"
	StyleHairColor   = "hair_color"
	StyleSkinTone    = "skin_tone"
	StyleClothing    = "clothing"
	StyleAccessories = "accessories"
)

// StyleFields lists the avatar style fields in display order.
var StyleFields = []string{StyleHairstyle, StyleHairColor, StyleSkinTone, StyleClothing, StyleAccessories}

// AvatarStyle is the set of catalog choices that determine the avatar image.
type AvatarStyle struct {
	Hairstyle   string `gorm:"size:32" json:"hairstyle"`
	HairColor   string `gorm:"size:32" json:"hair_color"`
	SkinTone    string `gorm:"size:32" json:"skin_tone"`
	Clothing    string `gorm:"size:32" json:"clothing"`
	Accessories string `gorm:"size:32" json:"accessories"`
}

// Get returns the value of a style field by name.
func (s AvatarStyle) Get(field string) string {
	switch field {
	case StyleHairstyle:
		return s.Hairstyle
	case StyleHairColor:
		return s.HairColor
	case StyleSkinTone:
		return s.SkinTone
	case StyleClothing:
		return s.Clothing
	case StyleAccessories:
		return s.Accessories
	}
	return ""
}

// Set assigns a style field by name. It returns false for unknown fields.
func (s *AvatarStyle) Set(field, value string) bool {
	switch field {
	case StyleHairstyle:
		s.Hairstyle = value
	case StyleHairColor:
		s.HairColor = value
	case StyleSkinTone:
		s.SkinTone = value
	case StyleClothing:
		s.Clothing = value
	case StyleAccessories:
		s.Accessories = value
	default:
		return false
	}
	return true
}

// Complete reports whether every style field has a value.
func (s AvatarStyle) Complete() bool {
	for _, f := range StyleFields {
		if s.Get(f) == "" {
			return false
		}
	}
	return true
}

// PrivacySettings controls what other users see. A nil flag has never been set.
type PrivacySettings struct {
	ShowEmail  *bool `json:"show_email"`
	ShowBio    *bool `json:"show_bio"`
	ShowTraits *bool `json:"show_traits"`
}

// Complete reports whether every privacy flag has been set.
func (p PrivacySettings) Complete() bool {
	return p.ShowEmail != nil && p.ShowBio != nil && p.ShowTraits != nil
}

// AvatarProfile is a user's avatar customization and bio.
type AvatarProfile struct {
	UserID      string                      `gorm:"primaryKey;size:64" json:"user_id"`
	DisplayName string                      `gorm:"size:120" json:"display_name"`
	Bio         string                      `gorm:"type:text" json:"bio"`
	Traits      datatypes.JSONSlice[string] `json:"traits"`
	Style       AvatarStyle                 `gorm:"embedded;embeddedPrefix:style_" json:"style"`
	Privacy     PrivacySettings             `gorm:"embedded;embeddedPrefix:privacy_" json:"privacy"`
	AvatarURL   string                      `gorm:"size:512" json:"avatar_url"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// HasTrait reports whether trait is selected.
func (p *AvatarProfile) HasTrait(trait string) bool {
	for _, t := range p.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// CompletionScore sums 20 points for each filled-in profile section.
func (p *AvatarProfile) CompletionScore() int {
	score := 0
	if strings.TrimSpace(p.DisplayName) != "" {
		score += 20
	}
	if strings.TrimSpace(p.Bio) != "" {
		score += 20
	}
	if len(p.Traits) > 0 {
		score += 20
	}
	if p.Style.Complete() {
		score += 20
	}
	if p.Privacy.Complete() {
		score += 20
	}
	return score
}

// ProfileCompletion records the most recently computed completion score.
type ProfileCompletion struct {
	UserID    string    `gorm:"primaryKey;size:64" json:"user_id"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileDetailsInput carries the free-text and privacy edits of a profile.
type ProfileDetailsInput struct {
	DisplayName *string          `json:"display_name,omitempty"`
	Bio         *string          `json:"bio,omitempty"`
	Privacy     *PrivacySettings `json:"privacy,omitempty"`
}

// ProfileView is the profile payload returned to clients.
type ProfileView struct {
	Profile       *AvatarProfile `json:"profile"`
	Completion    int            `json:"completion"`
	AvatarURL     string         `json:"avatar_url"`
	BioSuggestion string         `json:"bio_suggestion"`
}
