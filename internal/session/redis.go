package session

import (
    "context"
    "errors"
    "time"

    "github.com/redis/go-redis/v9"
)

// LiveCache stores refresh tokens in redis under Key(accountID) with a TTL
// equal to the refresh token lifetime.
type LiveCache struct {
    rdb *redis.Client
}

// NewLiveCache wraps a connected redis client.
func NewLiveCache(rdb *redis.Client) *LiveCache {
    return &LiveCache{rdb: rdb}
}

func (c *LiveCache) Put(ctx context.Context, accountID uint64, refreshToken string, ttl time.Duration) error {
    return c.rdb.Set(ctx, Key(accountID), refreshToken, ttl).Err()
}

func (c *LiveCache) Get(ctx context.Context, accountID uint64) (string, bool, error) {
    v, err := c.rdb.Get(ctx, Key(accountID)).Result()
    if errors.Is(err, redis.Nil) {
        return "", false, nil
    }
    if err != nil {
        return "", false, err
    }
    return v, true, nil
}

func (c *LiveCache) Delete(ctx context.Context, accountID uint64) error {
    return c.rdb.Del(ctx, Key(accountID)).Err()
}

func (c *LiveCache) Live() bool   { return true }
func (c *LiveCache) Mode() string { return ModeRedis }
