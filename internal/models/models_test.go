package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestPostStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to PostStatus
		allowed  bool
	}{
		{StatusScheduled, StatusPublished, true},
		{StatusScheduled, StatusFailed, true},
		{StatusPending, StatusScheduled, true},
		{StatusPending, StatusPublished, false},
		{StatusFailed, StatusPending, true},
		{StatusPublished, StatusScheduled, false},
		{StatusPublished, StatusFailed, false},
		{StatusScheduled, StatusScheduled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParsePlatformAndStatus(t *testing.T) {
	p, ok := ParsePlatform(" Instagram ")
	assert.True(t, ok)
	assert.Equal(t, PlatformInstagram, p)

	_, ok = ParsePlatform("myspace")
	assert.False(t, ok)

	s, ok := ParseStatus("PUBLISHED")
	assert.True(t, ok)
	assert.Equal(t, StatusPublished, s)
}

func TestPostFilter_Matches(t *testing.T) {
	post := &ScheduledPost{Content: "Launching our Summer Sale today", Platform: PlatformTwitter, Status: StatusPending}

	assert.True(t, PostFilter{}.Matches(post))
	assert.True(t, PostFilter{SearchText: "summer sale"}.Matches(post))
	assert.True(t, PostFilter{Platform: PlatformTwitter, Status: StatusPending, SearchText: "LAUNCH"}.Matches(post))
	assert.False(t, PostFilter{Platform: PlatformTwitter, Status: StatusPublished}.Matches(post))
	assert.False(t, PostFilter{SearchText: "winter"}.Matches(post))
}

func TestScheduledPost_ViewHidesEngagementUnlessPublished(t *testing.T) {
	post := &ScheduledPost{ID: "a", Status: StatusScheduled}
	assert.Nil(t, post.View().Engagement)

	post.Status = StatusPublished
	post.Likes = 12
	v := post.View()
	if assert.NotNil(t, v.Engagement) {
		assert.Equal(t, 12, v.Engagement.Likes)
	}
}

func TestAvatarProfile_CompletionScore(t *testing.T) {
	empty := &AvatarProfile{}
	assert.Equal(t, 0, empty.CompletionScore())

	full := &AvatarProfile{
		DisplayName: "Ada",
		Bio:         "Builder",
		Traits:      []string{"creative"},
		Style: AvatarStyle{
			Hairstyle: "short", HairColor: "black", SkinTone: "light", Clothing: "casual", Accessories: "none",
		},
		Privacy: PrivacySettings{ShowEmail: boolPtr(false), ShowBio: boolPtr(true), ShowTraits: boolPtr(true)},
	}
	assert.Equal(t, 100, full.CompletionScore())

	partial := &AvatarProfile{DisplayName: "Ada", Style: AvatarStyle{Hairstyle: "short"}}
	assert.Equal(t, 20, partial.CompletionScore())
	assert.Zero(t, partial.CompletionScore()%20)
}

func TestAvatarStyle_SetAndGet(t *testing.T) {
	var s AvatarStyle
	assert.True(t, s.Set(StyleHairColor, "red"))
	assert.Equal(t, "red", s.Get(StyleHairColor))
	assert.False(t, s.Set("eyebrows", "raised"))
	assert.False(t, s.Complete())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, 400, StatusFor(NewValidationError("x")))
	assert.Equal(t, 404, StatusFor(NewNotFoundError("post", "1")))
	assert.Equal(t, 409, StatusFor(NewGenerationInProgressError(KindImage)))
	assert.Equal(t, 502, StatusFor(NewNetworkError("down", errors.New("timeout"))))
	assert.Equal(t, 500, StatusFor(errors.New("plain")))
}

func TestNoticeFor(t *testing.T) {
	assert.Equal(t, SeverityWarning, NoticeFor(CodeValidation, "x").Severity)
	assert.Equal(t, SeverityError, NoticeFor(CodeNetwork, "x").Severity)
	assert.Equal(t, NoticeDismissAfterMs, NoticeFor("", "x").DismissAfterMs)
}
