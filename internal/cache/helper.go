package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix       = "user:%s"
	topicKeyPrefix      = "topic:%s"
	categoriesKey       = "topics:categories"
	categoryCountsKey   = "topics:category-counts"
)

const (
	UserTTL       = 5 * time.Minute
	TopicTTL      = 10 * time.Minute
	CategoriesTTL = 15 * time.Minute
)

func UserKey(id uuid.UUID) string {
	return fmt.Sprintf(userKeyPrefix, id)
}

func TopicKey(id uuid.UUID) string {
	return fmt.Sprintf(topicKeyPrefix, id)
}

func CategoriesKey() string {
	return categoriesKey
}

func CategoryCountsKey() string {
	return categoryCountsKey
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
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

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first, on miss it calls fetch (which must write into
// dest), then stores the result with ttl. Cache write failures are dropped;
// a cache read failure falls through to fetch.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	if err == nil && found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate drops a key. Safe to call with a nil client.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, id uuid.UUID) {
	Invalidate(ctx, UserKey(id))
}

func InvalidateTopic(ctx context.Context, id uuid.UUID) {
	Invalidate(ctx, TopicKey(id), categoriesKey, categoryCountsKey)
}
