package cron

import (
	"context"
	"fmt"
	"time"

	"wedbook/utils"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Pinger is the liveness probe of the backing store.
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthProbe periodically checks the store and the gateway's own dependencies.
type HealthProbe struct {
	Store  Pinger
	Redis  []*redis.Client
	Mongo  *mongo.Client // nil when the audit log is disabled
	Logger *zap.Logger
}

// Probe runs one round and publishes the snapshot.
func (p *HealthProbe) Probe(ctx context.Context) utils.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := utils.HealthStatus{Store: true, CheckedAt: time.Now()}
	if err := p.Store.Health(ctx); err != nil {
		status.Store = false
		status.StoreError = err.Error()
	}
	status.Redis, status.Mongo = utils.CheckDependencies(ctx, p.Redis, p.Mongo)

	prev := utils.GetHealthStatus()
	utils.SetHealthStatus(status)
	if prev.CheckedAt.IsZero() || prev.Store != status.Store {
		p.Logger.Info("health: record store status",
			zap.Bool("up", status.Store), zap.String("error", status.StoreError))
	}
	return status
}

// Start schedules the probe on spec (standard cron or "@every 30s") and runs it once immediately.
func (p *HealthProbe) Start(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { p.Probe(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid health probe schedule %q: %w", spec, err)
	}
	go p.Probe(context.Background())
	c.Start()
	return c, nil
}
