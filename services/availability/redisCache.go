// File: services/availability/redisCache.go
package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wedbook/models"

	"github.com/go-redis/redis/v8"
)

const (
	cacheKeyPrefix = "availability:"
	fieldFetchedAt = "_fetchedAt"
	fieldMax       = "_max"
)

// RedisCache shares month snapshots between gateway instances.
// Each month is one hash: one field per date plus two metadata fields.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration // 0 keeps entries until invalidated
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func monthKey(vendorID, month string) string {
	return fmt.Sprintf("%s%s:%s", cacheKeyPrefix, vendorID, month)
}

func genKey(vendorID, month string) string {
	return fmt.Sprintf("%sgen:%s:%s", cacheKeyPrefix, vendorID, month)
}

func (c *RedisCache) GetMonth(ctx context.Context, vendorID, month string) (*models.MonthCacheEntry, bool, error) {
	fields, err := c.client.HGetAll(ctx, monthKey(vendorID, month)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("availability cache read: %w", err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	entry := &models.MonthCacheEntry{
		VendorID: vendorID,
		MonthKey: month,
		Records:  make(map[string]models.AvailabilityRecord, len(fields)),
	}
	for field, raw := range fields {
		switch {
		case field == fieldFetchedAt:
			if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				entry.FetchedAt = t
			}
		case field == fieldMax:
			if n, err := strconv.Atoi(raw); err == nil {
				entry.MaxBookingsPerDay = n
			}
		case strings.HasPrefix(field, month+"-"):
			var rec models.AvailabilityRecord
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				// a corrupt day is simply recomputed
				continue
			}
			entry.Records[field] = rec
		}
	}
	return entry, true, nil
}

// Generation reads the month's invalidation counter; a missing key is 0.
func (c *RedisCache) Generation(ctx context.Context, vendorID, month string) (uint64, error) {
	gen, err := c.client.Get(ctx, genKey(vendorID, month)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("availability cache generation: %w", err)
	}
	return gen, nil
}

// PutDates writes the entry's dates as hash fields under WATCH on the
// generation key, so an invalidation racing the write aborts it.
func (c *RedisCache) PutDates(ctx context.Context, entry *models.MonthCacheEntry, gen uint64) (bool, error) {
	if entry == nil {
		return false, nil
	}
	values := make(map[string]interface{}, len(entry.Records)+2)
	values[fieldFetchedAt] = entry.FetchedAt.Format(time.RFC3339Nano)
	values[fieldMax] = entry.MaxBookingsPerDay
	for date, rec := range entry.Records {
		b, err := json.Marshal(rec)
		if err != nil {
			return false, err
		}
		values[date] = b
	}

	key := monthKey(entry.VendorID, entry.MonthKey)
	gk := genKey(entry.VendorID, entry.MonthKey)
	written := false
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, gk).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, values)
			if c.ttl > 0 {
				pipe.Expire(ctx, key, c.ttl)
			}
			return nil
		})
		if err != nil {
			return err
		}
		written = true
		return nil
	}, gk)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("availability cache write: %w", err)
	}
	return written, nil
}

func (c *RedisCache) InvalidateDate(ctx context.Context, vendorID, date string) error {
	month, err := models.MonthKeyOf(date)
	if err != nil {
		return err
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(vendorID, month))
		pipe.HDel(ctx, monthKey(vendorID, month), date)
		return nil
	})
	if err != nil {
		return fmt.Errorf("availability cache invalidate: %w", err)
	}
	return nil
}
