package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"socialdeck/internal/cache"
	"socialdeck/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ArtifactRepository defines the interface for generated artifact storage.
type ArtifactRepository interface {
	// Create stores a in the database and, best effort, in the Redis backup list.
	Create(ctx context.Context, a *models.Artifact) error
	// ListRecent returns up to limit artifacts, most recent first.
	ListRecent(ctx context.Context, userID string, kind models.ArtifactKind, limit int) ([]*models.Artifact, error)
}

type artifactRepository struct {
	db          *gorm.DB
	rdb         *redis.Client
	backupLimit int
	writer      *DualWriter[*models.Artifact]
}

// NewArtifactRepository creates an artifact repository. backupLimit caps the
// Redis backup list per (user, kind).
func NewArtifactRepository(db *gorm.DB, rdb *redis.Client, backupLimit int) ArtifactRepository {
	r := &artifactRepository{db: db, rdb: rdb, backupLimit: backupLimit}
	var secondary WriteFunc[*models.Artifact]
	if rdb != nil {
		secondary = r.backup
	}
	r.writer = NewDualWriter(func(a *models.Artifact) string {
		return "artifact:" + a.ID
	}, "database", r.insert, "redis", secondary)
	return r
}

func (r *artifactRepository) Create(ctx context.Context, a *models.Artifact) error {
	return r.writer.Write(ctx, a)
}

func (r *artifactRepository) insert(ctx context.Context, a *models.Artifact) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *artifactRepository) backup(ctx context.Context, a *models.Artifact) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	key := cache.ArtifactKey(a.UserID, string(a.Kind))
	pipe := r.rdb.TxPipeline()
	pipe.LPush(ctx, key, raw)
	if r.backupLimit > 0 {
		pipe.LTrim(ctx, key, 0, int64(r.backupLimit-1))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *artifactRepository) ListRecent(ctx context.Context, userID string, kind models.ArtifactKind, limit int) ([]*models.Artifact, error) {
	var artifacts []*models.Artifact
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&artifacts).Error; err != nil {
		return nil, err
	}
	return artifacts, nil
}
