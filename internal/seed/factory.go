// Package seed builds synthetic scheduled posts for demo accounts and tests.
package seed

import (
	"bytes"
	"fmt"
	"math"
	"sync"
	"text/template"
	"time"

	"socialdeck/internal/catalog"
	"socialdeck/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Window is how far back generated posts are scheduled.
const Window = 14 * 24 * time.Hour

// PostFactory builds synthetic posts. A non-zero seed makes output reproducible.
type PostFactory struct {
	mu        sync.Mutex
	faker     *gofakeit.Faker
	keywords  []string
	templates []*template.Template
	now       func() time.Time
}

// NewPostFactory creates a factory drawing keywords and templates from cat.
// seed 0 picks a random seed; now defaults to time.Now.
func NewPostFactory(cat *catalog.Catalog, seed int64, now func() time.Time) (*PostFactory, error) {
	if now == nil {
		now = time.Now
	}
	f := &PostFactory{
		faker:    gofakeit.New(seed),
		keywords: cat.Posts.Keywords,
		now:      now,
	}
	for i, raw := range cat.Posts.Templates {
		tmpl, err := template.New(fmt.Sprintf("post-%d", i)).Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse post template %d: %w", i, err)
		}
		f.templates = append(f.templates, tmpl)
	}
	return f, nil
}

// BuildPosts returns n posts.
func (f *PostFactory) BuildPosts(n int) []*models.ScheduledPost {
	posts := make([]*models.ScheduledPost, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, f.BuildPost())
	}
	return posts
}

// BuildPost returns one post with a random platform and status, scheduled
// within the trailing window. Only published posts get engagement counters.
func (f *PostFactory) BuildPost(overrides ...func(*models.ScheduledPost)) *models.ScheduledPost {
	f.mu.Lock()
	defer f.mu.Unlock()

	offset := time.Duration(f.faker.Number(0, int(Window/time.Second)-1)) * time.Second
	post := &models.ScheduledPost{
		ID:            f.faker.UUID(),
		Content:       f.content(),
		Platform:      models.AllPlatforms[f.faker.Number(0, len(models.AllPlatforms)-1)],
		Status:        models.AllStatuses[f.faker.Number(0, len(models.AllStatuses)-1)],
		ScheduledTime: f.now().Add(-offset).UTC().Truncate(time.Second),
		AIScore:       f.faker.Number(60, 100),
	}
	if post.Status == models.StatusPublished {
		post.Engagement = f.engagement()
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// Engagement builds a plausible counter set for a published post.
func (f *PostFactory) Engagement() models.Engagement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engagement()
}

func (f *PostFactory) engagement() models.Engagement {
	impressions := f.faker.Number(500, 20000)
	likes := impressions * f.faker.Number(1, 5) / 100
	return models.Engagement{
		Likes:       likes,
		Comments:    likes / f.faker.Number(3, 8),
		Shares:      likes / f.faker.Number(2, 6),
		Reach:       impressions * f.faker.Number(50, 100) / 100,
		Impressions: impressions,
		CTR:         math.Round(f.faker.Float64Range(0.5, 8.0)*100) / 100,
	}
}

func (f *PostFactory) content() string {
	data := struct {
		Keyword  string
		Sentence string
	}{
		Keyword:  f.faker.RandomString(f.keywords),
		Sentence: f.faker.Sentence(f.faker.Number(6, 12)),
	}
	tmpl := f.templates[f.faker.Number(0, len(f.templates)-1)]
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return data.Sentence
	}
	return buf.String()
}
