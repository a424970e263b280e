package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key namespaces. Every per-user key is "<namespace>:<userID>".
const (
	NamespaceScheduledPosts = "scheduled_posts"
	NamespaceConnections    = "connections"
	NamespaceProfile        = "avatar_profile"
	NamespaceArtifacts      = "artifacts"
)

// ProfileTTL bounds how long a cached profile copy lives.
const ProfileTTL = 24 * time.Hour

// UserKey builds the per-user key inside namespace.
func UserKey(namespace, userID string) string {
	return fmt.Sprintf("%s:%s", namespace, userID)
}

// ArtifactKey is the backup list of one user's artifacts of one kind.
func ArtifactKey(userID, kind string) string {
	return fmt.Sprintf("%s:%s:%s", NamespaceArtifacts, userID, kind)
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	s, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL. A zero ttl keeps the key forever.
func SetJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// CacheAside tries Redis first, on miss it calls fetch (which should populate dest),
// then stores the result in Redis with ttl. fetch must write into dest.
func CacheAside(ctx context.Context, rdb *redis.Client, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, rdb, key, dest)
	if err == nil && found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, rdb, key, dest, ttl)
	return nil
}

// Invalidate removes key. Errors are ignored.
func Invalidate(ctx context.Context, rdb *redis.Client, key string) {
	if rdb != nil {
		rdb.Del(ctx, key)
	}
}
