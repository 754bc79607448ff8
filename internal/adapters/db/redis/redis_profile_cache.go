package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/streampulse/account-service/internal/domain/account/model"
)

// RedisProfileCache fronts channel-profile aggregations with short-lived
// keys. A cache failure is never surfaced as a request failure; callers
// treat every error as a miss.
type RedisProfileCache struct {
	client *redis.Client
}

func NewRedisProfileCache(client *redis.Client) *RedisProfileCache {
	return &RedisProfileCache{client: client}
}

func channelKey(handle string, viewerID uuid.UUID) string {
	return "ch:" + handle + ":" + viewerID.String()
}

func (r *RedisProfileCache) GetChannel(ctx context.Context, handle string, viewerID uuid.UUID) (model.ChannelProfile, bool, error) {
	raw, err := r.client.Get(ctx, channelKey(handle, viewerID)).Result()
	switch {
	case err == redis.Nil:
		return model.ChannelProfile{}, false, nil
	case err != nil:
		return model.ChannelProfile{}, false, err
	}

	var p model.ChannelProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// stale or corrupt entry, drop it and report a miss
		_ = r.client.Del(ctx, channelKey(handle, viewerID)).Err()
		return model.ChannelProfile{}, false, nil
	}
	return p, true, nil
}

func (r *RedisProfileCache) SetChannel(ctx context.Context, handle string, viewerID uuid.UUID, p model.ChannelProfile, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, channelKey(handle, viewerID), raw, ttl).Err()
}

func (r *RedisProfileCache) InvalidateChannel(ctx context.Context, handle string) error {
	iter := r.client.Scan(ctx, 0, "ch:"+handle+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
