package redis

import (
	"context"
	"fmt"
	"time"

	"hangout-api/core/logger"
	"hangout-api/core/utils"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	rdb *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

var instance *Client

func Get() *Client {
	return instance
}

func Init(cfg RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to redis", "error", err, "addr", cfg.Addr)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis initialized successfully", "addr", cfg.Addr, "db", cfg.DB)
	instance = &Client{rdb: rdb}
	return instance, nil
}

func (c *Client) RDB() *redis.Client {
	return c.rdb
}

// Locker hands out short-lived advisory locks keyed by resource name.
// Used to serialize per-event waitlist promotion and per-template
// recurring materialization across worker instances.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type redisLocker struct {
	rdb *redis.Client
}

func NewLocker(c *Client) Locker {
	return &redisLocker{rdb: c.rdb}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := utils.GenerateID()
	ok, err := l.rdb.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Release only if we still hold the lock
		script := redis.NewScript(`
			if redis.call("GET", KEYS[1]) == ARGV[1] then
				return redis.call("DEL", KEYS[1])
			end
			return 0
		`)
		if err := script.Run(context.Background(), l.rdb, []string{"lock:" + key}, token).Err(); err != nil && err != redis.Nil {
			logger.Warn("Locker:Release", "error", err, "key", key)
		}
	}
	return release, true, nil
}
