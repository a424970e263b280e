package repository

import (
	"context"
	"errors"

	"socialdeck/internal/cache"
	"socialdeck/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository defines the interface for avatar profile data operations
type ProfileRepository interface {
	// GetByUserID returns a NOT_FOUND AppError when the user has no profile.
	GetByUserID(ctx context.Context, userID string) (*models.AvatarProfile, error)
	Save(ctx context.Context, profile *models.AvatarProfile) error
	SaveCompletion(ctx context.Context, record *models.ProfileCompletion) error
	GetCompletion(ctx context.Context, userID string) (*models.ProfileCompletion, error)
}

type profileRepository struct {
	db     *gorm.DB
	rdb    *redis.Client
	writer *DualWriter[*models.AvatarProfile]
}

// NewProfileRepository creates a profile repository. Profiles live in the
// database; when rdb is non-nil a copy is cached in Redis.
func NewProfileRepository(db *gorm.DB, rdb *redis.Client) ProfileRepository {
	r := &profileRepository{db: db, rdb: rdb}
	var secondary WriteFunc[*models.AvatarProfile]
	if rdb != nil {
		secondary = r.cacheProfile
	}
	r.writer = NewDualWriter(profileKey, "database", r.upsert, "redis", secondary)
	return r
}

func profileKey(p *models.AvatarProfile) string {
	return cache.UserKey(cache.NamespaceProfile, p.UserID)
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*models.AvatarProfile, error) {
	var profile models.AvatarProfile
	err := cache.CacheAside(ctx, r.rdb, cache.UserKey(cache.NamespaceProfile, userID), &profile, cache.ProfileTTL, func() error {
		return r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Profile", userID)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Save drops the cached copy before writing so a failed cache refresh can
// never serve a profile older than the database row.
func (r *profileRepository) Save(ctx context.Context, profile *models.AvatarProfile) error {
	cache.Invalidate(ctx, r.rdb, profileKey(profile))
	return r.writer.Write(ctx, profile)
}

func (r *profileRepository) upsert(ctx context.Context, profile *models.AvatarProfile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(profile).Error
}

func (r *profileRepository) cacheProfile(ctx context.Context, profile *models.AvatarProfile) error {
	key := profileKey(profile)
	if err := cache.SetJSON(ctx, r.rdb, key, profile, cache.ProfileTTL); err != nil {
		cache.Invalidate(ctx, r.rdb, key)
		return err
	}
	return nil
}

func (r *profileRepository) SaveCompletion(ctx context.Context, record *models.ProfileCompletion) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(record).Error
}

func (r *profileRepository) GetCompletion(ctx context.Context, userID string) (*models.ProfileCompletion, error) {
	var record models.ProfileCompletion
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Profile completion", userID)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
