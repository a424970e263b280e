package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"socialdeck/internal/cache"
	"socialdeck/internal/models"
)

// ScheduledPostRepository persists a user's scheduled post working set as one document.
type ScheduledPostRepository interface {
	// Load returns the stored set and whether one exists.
	Load(ctx context.Context, userID string) ([]*models.ScheduledPost, bool, error)
	// Save overwrites the stored set.
	Save(ctx context.Context, userID string, posts []*models.ScheduledPost) error
}

type scheduledPostRepository struct {
	kv KVStore
}

// NewScheduledPostRepository creates a post set repository on top of kv.
func NewScheduledPostRepository(kv KVStore) ScheduledPostRepository {
	return &scheduledPostRepository{kv: kv}
}

func (r *scheduledPostRepository) Load(ctx context.Context, userID string) ([]*models.ScheduledPost, bool, error) {
	raw, ok, err := r.kv.Get(ctx, cache.UserKey(cache.NamespaceScheduledPosts, userID))
	if err != nil || !ok {
		return nil, false, err
	}
	var posts []*models.ScheduledPost
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, false, fmt.Errorf("decode scheduled posts: %w", err)
	}
	return posts, true, nil
}

func (r *scheduledPostRepository) Save(ctx context.Context, userID string, posts []*models.ScheduledPost) error {
	if posts == nil {
		posts = []*models.ScheduledPost{}
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode scheduled posts: %w", err)
	}
	return r.kv.Set(ctx, cache.UserKey(cache.NamespaceScheduledPosts, userID), raw)
}
