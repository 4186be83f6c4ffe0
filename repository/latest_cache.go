package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/appditto/capture-server/database"
	"github.com/appditto/capture-server/models/dbmodels"
	"github.com/redis/go-redis/v9"
)

var latestImageKey = database.Key("images:latest")

// Stores ARGV[2] under KEYS[1] unless the cached rank is the same or newer.
// Ranks compare as strings, see imageRank.
var setIfNewerScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'rank')
if current and current >= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'rank', ARGV[1], 'data', ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// LatestImageCache keeps the newest image record in redis.
// Writes never replace a newer record with an older one.
type LatestImageCache struct {
	Redis *database.RedisManager
	TTL   time.Duration
}

// imageRank orders images by timestamp then id, zero padded so it sorts lexically
func imageRank(image *dbmodels.Image) string {
	return fmt.Sprintf("%020d|%s", image.Timestamp.UnixMicro(), image.ID.String())
}

// Get returns ErrNotFound on a cache miss
func (cache *LatestImageCache) Get(ctx context.Context) (*dbmodels.Image, error) {
	raw, err := cache.Redis.HGet(ctx, latestImageKey, "data")
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	var image dbmodels.Image
	if err := json.Unmarshal([]byte(raw), &image); err != nil {
		return nil, err
	}
	return &image, nil
}

// Set caches image if nothing newer is cached, it returns whether image was stored
func (cache *LatestImageCache) Set(ctx context.Context, image *dbmodels.Image) (bool, error) {
	serialized, err := json.Marshal(image)
	if err != nil {
		return false, err
	}
	stored, err := setIfNewerScript.Run(ctx, cache.Redis.Client, []string{latestImageKey},
		imageRank(image), string(serialized), cache.TTL.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

func (cache *LatestImageCache) Invalidate(ctx context.Context) error {
	_, err := cache.Redis.Del(ctx, latestImageKey)
	return err
}
