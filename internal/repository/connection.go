package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"socialdeck/internal/cache"
	"socialdeck/internal/models"
)

// ConnectionRepository persists the platform → connected map of a user.
type ConnectionRepository interface {
	Load(ctx context.Context, userID string) (map[models.Platform]bool, error)
	Save(ctx context.Context, userID string, connected map[models.Platform]bool) error
}

type connectionRepository struct {
	kv KVStore
}

// NewConnectionRepository creates a connection repository on top of kv.
func NewConnectionRepository(kv KVStore) ConnectionRepository {
	return &connectionRepository{kv: kv}
}

func (r *connectionRepository) Load(ctx context.Context, userID string) (map[models.Platform]bool, error) {
	connected := make(map[models.Platform]bool)
	raw, ok, err := r.kv.Get(ctx, cache.UserKey(cache.NamespaceConnections, userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return connected, nil
	}
	if err := json.Unmarshal(raw, &connected); err != nil {
		return nil, fmt.Errorf("decode connections: %w", err)
	}
	return connected, nil
}

func (r *connectionRepository) Save(ctx context.Context, userID string, connected map[models.Platform]bool) error {
	raw, err := json.Marshal(connected)
	if err != nil {
		return fmt.Errorf("encode connections: %w", err)
	}
	return r.kv.Set(ctx, cache.UserKey(cache.NamespaceConnections, userID), raw)
}
