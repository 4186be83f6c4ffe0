package database

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"
)

// Prefix for all keys
const keyPrefix = "capture"

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	DB   int    `yaml:"db"`
	// Mock runs an in-process miniredis instead of dialing Host
	Mock bool `yaml:"mock"`
}

type RedisManager struct {
	Client *redis.Client
	Mock   bool
	mr     *miniredis.Miniredis
}

func NewRedis(config *RedisConfig) (*RedisManager, error) {
	if config.Mock {
		klog.Infof("Using mock redis client because MOCK_REDIS=true is set in environment")
		mr, err := miniredis.Run()
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(&redis.Options{
			Addr: mr.Addr(),
		})
		return &RedisManager{Client: client, Mock: true, mr: mr}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", config.Host, config.Port),
		DB:   config.DB,
	})
	return &RedisManager{Client: client}, nil
}

// Key namespaces key under the server prefix
func Key(key string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, key)
}

func (r *RedisManager) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisManager) Close() error {
	err := r.Client.Close()
	if r.mr != nil {
		r.mr.Close()
	}
	return err
}

// del - Redis DEL
func (r *RedisManager) Del(ctx context.Context, key string) (int64, error) {
	return r.Client.Del(ctx, key).Result()
}

// get - Redis GET
func (r *RedisManager) Get(ctx context.Context, key string) (string, error) {
	return r.Client.Get(ctx, key).Result()
}

// set - Redis SET
func (r *RedisManager) Set(ctx context.Context, key string, value string, expiry time.Duration) error {
	return r.Client.Set(ctx, key, value, expiry).Err()
}

// hget - Redis HGET
func (r *RedisManager) HGet(ctx context.Context, key string, field string) (string, error) {
	return r.Client.HGet(ctx, key, field).Result()
}

// FastForward advances the clock of a mock redis, it does nothing against a real server
func (r *RedisManager) FastForward(d time.Duration) {
	if r.mr != nil {
		r.mr.FastForward(d)
	}
}
