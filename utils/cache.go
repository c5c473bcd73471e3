package utils

import (
	"context"
	"fmt"
	"time"

	"wedbook/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient backs the shared availability cache.
	CacheClient *redis.Client
	// SessionClient holds booking workflow sessions and their locks.
	SessionClient *redis.Client
)

func newRedisClient(db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
}

func ping(client *redis.Client, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis (%s): %w", name, err)
	}
	return nil
}

// InitCache connects the availability cache client.
func InitCache() error {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB)
	return ping(CacheClient, "cache")
}

// InitSessionCache connects the booking session client.
func InitSessionCache() error {
	SessionClient = newRedisClient(config.AppConfig.RedisSessionDB)
	return ping(SessionClient, "sessions")
}

// QueueRedisOpt is the asynq connection for the verification queue.
func QueueRedisOpt() (addr, password string, db int) {
	return config.AppConfig.RedisAddr, config.AppConfig.RedisPassword, config.AppConfig.RedisQueueDB
}

// RedisClients lists the connected clients, for health reporting and shutdown.
func RedisClients() []*redis.Client {
	var out []*redis.Client
	for _, c := range []*redis.Client{CacheClient, SessionClient} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
