package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"socialdeck/internal/models"
	"socialdeck/internal/observability"
	"socialdeck/internal/repository"
	"socialdeck/internal/seed"
)

// DefaultSeedCount is the size of a generated working set when none is given.
const DefaultSeedCount = 20

// DefaultTimeSeriesDays is used when the requested window is not positive.
const DefaultTimeSeriesDays = 7

// ScheduleOptions tunes a ScheduleService.
type ScheduleOptions struct {
	// Location decides which calendar day a post belongs to. Defaults to UTC.
	Location *time.Location
	// SeedCount is used by Generate when the caller passes a non-positive count
	// and for the first List of a user with no stored set.
	SeedCount int
	Now       func() time.Time
}

// ScheduleService owns each user's scheduled post working set and its rollups.
type ScheduleService struct {
	repo    repository.ScheduledPostRepository
	factory *seed.PostFactory
	loc     *time.Location
	count   int
	now     func() time.Time
	locks   keyedMutex
	log     *observability.StoreLogger
}

func NewScheduleService(repo repository.ScheduledPostRepository, factory *seed.PostFactory, opts ScheduleOptions) *ScheduleService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SeedCount <= 0 {
		opts.SeedCount = DefaultSeedCount
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ScheduleService{
		repo:    repo,
		factory: factory,
		loc:     opts.Location,
		count:   opts.SeedCount,
		now:     opts.Now,
		log:     observability.NewStoreLogger("scheduled_posts"),
	}
}

// Generate replaces the working set with count synthetic posts.
func (s *ScheduleService) Generate(ctx context.Context, session models.Session, count int) ([]*models.ScheduledPost, error) {
	if count <= 0 {
		count = s.count
	}
	unlock := s.locks.Lock(session.UserID)
	defer unlock()

	posts := s.factory.BuildPosts(count)
	sortByScheduledTime(posts)
	s.persist(ctx, session.UserID, posts, "generate")

	observability.LogServiceCall(ctx, "ScheduleService", "Generate", map[string]interface{}{"count": count})
	return posts, nil
}

// List returns the posts matching filter, newest first. A user without a
// stored set gets a freshly seeded one.
func (s *ScheduleService) List(ctx context.Context, session models.Session, filter models.PostFilter) ([]*models.ScheduledPost, error) {
	unlock := s.locks.Lock(session.UserID)
	defer unlock()

	posts, err := s.loadOrSeed(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.ScheduledPost, 0, len(posts))
	for _, p := range posts {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	sortByScheduledTime(out)
	return out, nil
}

// Update edits the content and/or platform of post id.
func (s *ScheduleService) Update(ctx context.Context, session models.Session, id string, patch models.PostPatch) (*models.ScheduledPost, error) {
	if patch.Content == nil && patch.Platform == nil {
		return nil, models.NewValidationError("Nothing to update")
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, models.NewValidationError("Post content cannot be empty")
	}
	if patch.Platform != nil {
		p, ok := models.ParsePlatform(string(*patch.Platform))
		if !ok {
			return nil, models.NewValidationError("Unsupported platform: " + string(*patch.Platform))
		}
		patch.Platform = &p
	}

	unlock := s.locks.Lock(session.UserID)
	defer unlock()

	posts, err := s.loadOrSeed(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	post := findPost(posts, id)
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}

	if patch.Content != nil {
		post.Content = strings.TrimSpace(*patch.Content)
	}
	if patch.Platform != nil {
		post.Platform = *patch.Platform
	}
	s.persist(ctx, session.UserID, posts, "update")
	return post, nil
}

// Remove deletes post id. Removing an absent id is not an error.
func (s *ScheduleService) Remove(ctx context.Context, session models.Session, id string) error {
	unlock := s.locks.Lock(session.UserID)
	defer unlock()

	posts, err := s.loadOrSeed(ctx, session.UserID)
	if err != nil {
		return err
	}

	kept := posts[:0]
	removed := false
	for _, p := range posts {
		if p.ID == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	if removed {
		s.persist(ctx, session.UserID, kept, "remove")
	}
	return nil
}

// Transition moves post id to status. Publishing assigns engagement counters;
// any other target clears them.
func (s *ScheduleService) Transition(ctx context.Context, session models.Session, id string, status models.PostStatus) (*models.ScheduledPost, error) {
	next, ok := models.ParseStatus(string(status))
	if !ok {
		return nil, models.NewValidationError("Unknown status: " + string(status))
	}

	unlock := s.locks.Lock(session.UserID)
	defer unlock()

	posts, err := s.loadOrSeed(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	post := findPost(posts, id)
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	if !post.Status.CanTransitionTo(next) {
		return nil, models.NewValidationError("Cannot move a " + string(post.Status) + " post to " + string(next))
	}

	post.Status = next
	if next == models.StatusPublished {
		post.Engagement = s.factory.Engagement()
	} else {
		post.Engagement = models.Engagement{}
	}
	s.persist(ctx, session.UserID, posts, "transition")
	return post, nil
}

// Aggregate rolls up the published posts.
func (s *ScheduleService) Aggregate(ctx context.Context, session models.Session) (models.Aggregate, error) {
	posts, err := s.snapshot(ctx, session.UserID)
	if err != nil {
		return models.Aggregate{}, err
	}
	return aggregate(posts), nil
}

func aggregate(posts []*models.ScheduledPost) models.Aggregate {
	var agg models.Aggregate
	scoreSum := 0
	for _, p := range posts {
		if p.Status != models.StatusPublished {
			continue
		}
		agg.TotalPosts++
		agg.TotalLikes += p.Likes
		agg.TotalComments += p.Comments
		agg.TotalShares += p.Shares
		agg.TotalReach += p.Reach
		agg.TotalImpressions += p.Impressions
		scoreSum += p.AIScore
	}
	if agg.TotalPosts == 0 {
		return models.Aggregate{Empty: true}
	}

	interactions := agg.TotalLikes + agg.TotalComments + agg.TotalShares
	agg.AvgAIScore = round(float64(scoreSum)/float64(agg.TotalPosts), 1)
	agg.AvgEngagement = interactions / agg.TotalPosts
	if agg.TotalImpressions > 0 {
		agg.EngagementRate = round(float64(interactions)/float64(agg.TotalImpressions)*100, 2)
	}
	return agg
}

// TimeSeries returns one point per calendar day for the trailing days days
// ending today, oldest first.
func (s *ScheduleService) TimeSeries(ctx context.Context, session models.Session, days int) ([]models.TimeSeriesPoint, error) {
	if days <= 0 {
		days = DefaultTimeSeriesDays
	}
	posts, err := s.snapshot(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	today := s.now().In(s.loc)
	points := make([]models.TimeSeriesPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i-(days-1)).Format(time.DateOnly)
		points[i] = models.TimeSeriesPoint{Date: date}
		index[date] = i
	}

	for _, p := range posts {
		if p.Status != models.StatusPublished {
			continue
		}
		i, ok := index[p.ScheduledTime.In(s.loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		points[i].Likes += p.Likes
		points[i].Comments += p.Comments
		points[i].Shares += p.Shares
		points[i].Reach += p.Reach
	}
	return points, nil
}

// Breakdown counts every post by status and by platform.
func (s *ScheduleService) Breakdown(ctx context.Context, session models.Session) (models.Breakdown, error) {
	posts, err := s.snapshot(ctx, session.UserID)
	if err != nil {
		return models.Breakdown{}, err
	}

	b := models.Breakdown{
		Total:      len(posts),
		ByStatus:   make(map[models.PostStatus]int, len(models.AllStatuses)),
		ByPlatform: make(map[models.Platform]int, len(models.AllPlatforms)),
	}
	for _, st := range models.AllStatuses {
		b.ByStatus[st] = 0
	}
	for _, pl := range models.AllPlatforms {
		b.ByPlatform[pl] = 0
	}
	for _, p := range posts {
		b.ByStatus[p.Status]++
		b.ByPlatform[p.Platform]++
	}
	return b, nil
}

func (s *ScheduleService) snapshot(ctx context.Context, userID string) ([]*models.ScheduledPost, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.loadOrSeed(ctx, userID)
}

// loadOrSeed must be called with the user's lock held.
func (s *ScheduleService) loadOrSeed(ctx context.Context, userID string) ([]*models.ScheduledPost, error) {
	posts, ok, err := s.repo.Load(ctx, userID)
	if err != nil {
		s.log.LogError(ctx, err, "read", userID)
		return nil, models.NewInternalError(err)
	}
	if ok {
		return posts, nil
	}

	posts = s.factory.BuildPosts(s.count)
	sortByScheduledTime(posts)
	s.persist(ctx, userID, posts, "seed")
	return posts, nil
}

// persist writes the whole set. Failures are logged and counted only.
func (s *ScheduleService) persist(ctx context.Context, userID string, posts []*models.ScheduledPost, op string) {
	observability.PostMutations.WithLabelValues(op).Inc()
	if err := s.repo.Save(ctx, userID, posts); err != nil {
		s.log.LogError(ctx, models.NewPersistenceError("scheduled_posts", err), "write", userID)
		observability.PersistenceFailures.WithLabelValues("scheduled_posts", "primary").Inc()
		return
	}
	s.log.LogWrite(ctx, userID, map[string]interface{}{"posts": len(posts), "operation": op})
}

func findPost(posts []*models.ScheduledPost, id string) *models.ScheduledPost {
	for _, p := range posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func sortByScheduledTime(posts []*models.ScheduledPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].ScheduledTime.Equal(posts[j].ScheduledTime) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].ScheduledTime.After(posts[j].ScheduledTime)
	})
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
