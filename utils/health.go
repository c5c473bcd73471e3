package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Store      bool      `json:"store"`
	StoreError string    `json:"storeError,omitempty"`
	Mongo      *bool     `json:"mongo,omitempty"` // nil when the audit log is disabled
	Redis      []bool    `json:"redis,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// SetHealthStatus replaces the snapshot and updates the store gauge.
func SetHealthStatus(h HealthStatus) {
	mu.Lock()
	currentHealth = h
	mu.Unlock()
	SetStoreHealthy(h.Store)
}

// CheckDependencies pings Redis and Mongo. mongoClient may be nil.
func CheckDependencies(ctx context.Context, redisClients []*redis.Client, mongoClient *mongo.Client) (redisHealth []bool, mongoHealthy *bool) {
	for _, client := range redisClients {
		err := client.Ping(ctx).Err()
		redisHealth = append(redisHealth, err == nil)
	}
	if mongoClient != nil {
		ok := mongoClient.Ping(ctx, nil) == nil
		mongoHealthy = &ok
	}
	return redisHealth, mongoHealthy
}

// StoreHealthHint exposes the last probe to the booking workflow's pre-flight.
type StoreHealthHint struct{}

// StoreDown is true only when a probe has run and failed.
func (StoreHealthHint) StoreDown() bool {
	h := GetHealthStatus()
	return !h.CheckedAt.IsZero() && !h.Store
}
