package seed

import (
	"strings"
	"testing"
	"time"

	"socialdeck/internal/catalog"
	"socialdeck/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) }

func TestBuildPosts_Invariants(t *testing.T) {
	f, err := NewPostFactory(catalog.Default(), 42, fixedNow)
	require.NoError(t, err)

	posts := f.BuildPosts(200)
	require.Len(t, posts, 200)

	ids := make(map[string]bool)
	keywords := catalog.Default().Posts.Keywords
	for _, p := range posts {
		assert.False(t, ids[p.ID], "duplicate id")
		ids[p.ID] = true

		assert.GreaterOrEqual(t, p.AIScore, 60)
		assert.LessOrEqual(t, p.AIScore, 100)

		assert.False(t, p.ScheduledTime.After(fixedNow()))
		assert.True(t, p.ScheduledTime.After(fixedNow().Add(-Window-time.Second)))

		_, ok := models.ParsePlatform(string(p.Platform))
		assert.True(t, ok)

		if p.Status == models.StatusPublished {
			assert.Greater(t, p.Impressions, 0)
			assert.LessOrEqual(t, p.Reach, p.Impressions)
		} else {
			assert.Equal(t, models.Engagement{}, p.Engagement)
		}

		found := false
		for _, kw := range keywords {
			if strings.Contains(p.Content, kw) {
				found = true
				break
			}
		}
		assert.True(t, found, p.Content)
	}
}

func TestBuildPosts_ReproducibleWithSeed(t *testing.T) {
	a, err := NewPostFactory(catalog.Default(), 7, fixedNow)
	require.NoError(t, err)
	b, err := NewPostFactory(catalog.Default(), 7, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, a.BuildPosts(5), b.BuildPosts(5))
}

func TestBuildPost_Overrides(t *testing.T) {
	f, err := NewPostFactory(catalog.Default(), 1, fixedNow)
	require.NoError(t, err)

	p := f.BuildPost(func(p *models.ScheduledPost) {
		p.Status = models.StatusPending
		p.Engagement = models.Engagement{}
	})
	assert.Equal(t, models.StatusPending, p.Status)
	assert.Zero(t, p.Likes)
}
