package availability

import (
	"context"
	"sync"

	"wedbook/models"
)

// Cache holds month-level availability snapshots keyed by (vendor, month).
// Entries never expire on their own; every booking mutation must call InvalidateDate.
//
// Writers read Generation before fetching from the store and pass it to
// PutDates, which refuses the write when any date of the month was invalidated
// in between. PutDates merges the given records into the cached month and never
// touches other dates.
type Cache interface {
	GetMonth(ctx context.Context, vendorID, monthKey string) (*models.MonthCacheEntry, bool, error)
	Generation(ctx context.Context, vendorID, monthKey string) (uint64, error)
	PutDates(ctx context.Context, entry *models.MonthCacheEntry, gen uint64) (bool, error)
	InvalidateDate(ctx context.Context, vendorID, date string) error
}

func entryKey(vendorID, monthKey string) string {
	return vendorID + "|" + monthKey
}

// MemoryCache is the in-process Cache. Reads and writes copy entries.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*models.MonthCacheEntry
	gens       map[string]uint64
	seq        uint64
	maxEntries int
}

// NewMemoryCache builds an in-process cache. maxEntries <= 0 means unbounded;
// otherwise the entry fetched longest ago is evicted on overflow.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*models.MonthCacheEntry),
		gens:       make(map[string]uint64),
		maxEntries: maxEntries,
	}
}

func (c *MemoryCache) GetMonth(_ context.Context, vendorID, monthKey string) (*models.MonthCacheEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[entryKey(vendorID, monthKey)]
	if !ok {
		return nil, false, nil
	}
	return entry.Clone(), true, nil
}

// Generation is 0 for a month never invalidated. Values come from one
// counter, so a month's generation never repeats.
func (c *MemoryCache) Generation(_ context.Context, vendorID, monthKey string) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[entryKey(vendorID, monthKey)], nil
}

func (c *MemoryCache) PutDates(_ context.Context, entry *models.MonthCacheEntry, gen uint64) (bool, error) {
	if entry == nil {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := entryKey(entry.VendorID, entry.MonthKey)
	if c.gens[key] != gen {
		return false, nil
	}
	current, exists := c.entries[key]
	if !exists {
		if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
		c.entries[key] = entry.Clone()
		return true, nil
	}
	for date, rec := range entry.Records {
		current.Records[date] = rec
	}
	current.MaxBookingsPerDay = entry.MaxBookingsPerDay
	current.FetchedAt = entry.FetchedAt
	return true, nil
}

// InvalidateDate drops one date from the cached month containing it and
// bumps the month's generation, cached or not, so in-flight fills are discarded.
func (c *MemoryCache) InvalidateDate(_ context.Context, vendorID, date string) error {
	monthKey, err := models.MonthKeyOf(date)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := entryKey(vendorID, monthKey)
	c.seq++
	c.gens[key] = c.seq
	if entry, ok := c.entries[key]; ok {
		delete(entry.Records, date)
	}
	return nil
}

// Len returns the number of cached months.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldest *models.MonthCacheEntry
	for k, e := range c.entries {
		if oldest == nil || e.FetchedAt.Before(oldest.FetchedAt) {
			oldestKey, oldest = k, e
		}
	}
	if oldest != nil {
		delete(c.entries, oldestKey)
	}
}
