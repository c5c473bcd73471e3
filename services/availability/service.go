package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wedbook/models"
	"wedbook/utils"

	"go.uber.org/zap"
)

// ErrInvalidInput is returned for an empty vendor ID or a malformed date/month.
var ErrInvalidInput = errors.New("invalid availability input")

// RecordReader is the read side of the backing store.
type RecordReader interface {
	VendorBookings(ctx context.Context, vendorID, monthKey string) (*models.VendorBookings, error)
	OffDays(ctx context.Context, vendorID string) ([]models.OffDay, error)
}

// Checker answers point availability questions.
type Checker interface {
	CheckAvailability(ctx context.Context, vendorID, date string) (*models.AvailabilityResult, error)
}

// Invalidator drops a (vendor, date) answer after a booking mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, vendorID, date string) error
}

// Service computes bookability per vendor and date from booking load and off-days.
// It never mutates the store; its only side effect is populating the cache.
type Service struct {
	store      RecordReader
	cache      Cache
	defaultMax int
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(store RecordReader, cache Cache, defaultMaxPerDay int, logger *zap.Logger) *Service {
	if defaultMaxPerDay <= 0 {
		defaultMaxPerDay = 1
	}
	return &Service{
		store:      store,
		cache:      cache,
		defaultMax: defaultMaxPerDay,
		now:        time.Now,
		logger:     logger,
	}
}

// CheckAvailability reports whether vendorID can take another booking on date.
// Store failures are returned as errors and never reported as available.
func (s *Service) CheckAvailability(ctx context.Context, vendorID, date string) (*models.AvailabilityResult, error) {
	if vendorID == "" {
		return nil, fmt.Errorf("%w: vendor ID is required", ErrInvalidInput)
	}
	if _, err := models.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	monthKey, _ := models.MonthKeyOf(date)

	entry, cached := s.cachedMonth(ctx, vendorID, monthKey)
	if cached {
		if rec, ok := entry.Records[date]; ok {
			utils.IncAvailabilityCheck("cache")
			return models.ResultFromRecord(rec, true), nil
		}
	}

	gen, genOK := s.generation(ctx, vendorID, monthKey)
	fresh, err := s.fetchMonth(ctx, vendorID, monthKey)
	if err != nil {
		utils.IncAvailabilityCheck("error")
		return nil, fmt.Errorf("check availability for vendor %s on %s: %w", vendorID, date, err)
	}
	utils.IncAvailabilityCheck("store")

	if genOK {
		if cached {
			// only the invalidated date is written back; the rest of the month stays as cached
			s.storeDates(ctx, fresh.Subset(date), gen)
		} else {
			s.storeDates(ctx, fresh, gen)
		}
	}
	return models.ResultFromRecord(fresh.Records[date], false), nil
}

// Month returns the full month snapshot for the calendar surface, refilling
// any dates invalidated since it was cached.
func (s *Service) Month(ctx context.Context, vendorID, monthKey string) (*models.MonthCacheEntry, error) {
	if vendorID == "" {
		return nil, fmt.Errorf("%w: vendor ID is required", ErrInvalidInput)
	}
	if _, err := models.ParseMonthKey(monthKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	entry, cached := s.cachedMonth(ctx, vendorID, monthKey)
	if cached {
		missing := entry.MissingDates()
		if len(missing) == 0 {
			utils.IncAvailabilityCheck("cache")
			return entry, nil
		}
		gen, genOK := s.generation(ctx, vendorID, monthKey)
		fresh, err := s.fetchMonth(ctx, vendorID, monthKey)
		if err != nil {
			utils.IncAvailabilityCheck("error")
			return nil, fmt.Errorf("refresh month %s for vendor %s: %w", monthKey, vendorID, err)
		}
		utils.IncAvailabilityCheck("store")
		refill := fresh.Subset(missing...)
		for d, rec := range refill.Records {
			entry.Records[d] = rec
		}
		entry.MaxBookingsPerDay = fresh.MaxBookingsPerDay
		if genOK {
			s.storeDates(ctx, refill, gen)
		}
		return entry, nil
	}

	gen, genOK := s.generation(ctx, vendorID, monthKey)
	fresh, err := s.fetchMonth(ctx, vendorID, monthKey)
	if err != nil {
		utils.IncAvailabilityCheck("error")
		return nil, fmt.Errorf("load month %s for vendor %s: %w", monthKey, vendorID, err)
	}
	utils.IncAvailabilityCheck("store")
	if genOK {
		s.storeDates(ctx, fresh, gen)
	}
	return fresh.Clone(), nil
}

// Invalidate marks one date stale so the next read recomputes it.
func (s *Service) Invalidate(ctx context.Context, vendorID, date string) error {
	if vendorID == "" {
		return fmt.Errorf("%w: vendor ID is required", ErrInvalidInput)
	}
	if _, err := models.ParseDate(date); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.cache.InvalidateDate(ctx, vendorID, date); err != nil {
		s.logger.Error("availability: invalidate failed",
			zap.String("vendorID", vendorID), zap.String("date", date), zap.Error(err))
		return err
	}
	s.logger.Debug("availability: date invalidated",
		zap.String("vendorID", vendorID), zap.String("date", date))
	return nil
}

// cachedMonth treats cache failures as misses; the store stays the source of truth.
func (s *Service) cachedMonth(ctx context.Context, vendorID, monthKey string) (*models.MonthCacheEntry, bool) {
	entry, ok, err := s.cache.GetMonth(ctx, vendorID, monthKey)
	if err != nil {
		s.logger.Warn("availability: cache read failed",
			zap.String("vendorID", vendorID), zap.String("month", monthKey), zap.Error(err))
		return nil, false
	}
	if !ok || entry == nil {
		return nil, false
	}
	if entry.Records == nil {
		entry.Records = make(map[string]models.AvailabilityRecord)
	}
	return entry, true
}

// generation must be read before the store fetch. Without it the fetched
// records are served but not cached.
func (s *Service) generation(ctx context.Context, vendorID, monthKey string) (uint64, bool) {
	gen, err := s.cache.Generation(ctx, vendorID, monthKey)
	if err != nil {
		s.logger.Warn("availability: cache generation read failed",
			zap.String("vendorID", vendorID), zap.String("month", monthKey), zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (s *Service) storeDates(ctx context.Context, entry *models.MonthCacheEntry, gen uint64) {
	written, err := s.cache.PutDates(ctx, entry, gen)
	if err != nil {
		s.logger.Warn("availability: cache write failed",
			zap.String("vendorID", entry.VendorID), zap.String("month", entry.MonthKey), zap.Error(err))
		return
	}
	if !written {
		s.logger.Debug("availability: month invalidated during fetch; result not cached",
			zap.String("vendorID", entry.VendorID), zap.String("month", entry.MonthKey))
	}
}

// fetchMonth reads bookings then off-days, one call at a time, and derives every day of the month.
func (s *Service) fetchMonth(ctx context.Context, vendorID, monthKey string) (*models.MonthCacheEntry, error) {
	bookings, err := s.store.VendorBookings(ctx, vendorID, monthKey)
	if err != nil {
		return nil, err
	}
	offDays, err := s.store.OffDays(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return BuildMonth(vendorID, monthKey, bookings, offDays, s.defaultMax, s.now())
}

// BuildMonth derives a month of availability records from raw booking rows and off-days.
func BuildMonth(
	vendorID, monthKey string,
	bookings *models.VendorBookings,
	offDays []models.OffDay,
	defaultMax int,
	fetchedAt time.Time,
) (*models.MonthCacheEntry, error) {
	first, err := models.ParseMonthKey(monthKey)
	if err != nil {
		return nil, err
	}

	max := defaultMax
	counts := make(map[string]int)
	if bookings != nil {
		if bookings.MaxBookingsPerDay > 0 {
			max = bookings.MaxBookingsPerDay
		}
		for _, b := range bookings.Bookings {
			if b.CountsTowardCapacity() {
				counts[b.EventDate]++
			}
		}
	}

	entry := &models.MonthCacheEntry{
		VendorID:          vendorID,
		MonthKey:          monthKey,
		MaxBookingsPerDay: max,
		Records:           make(map[string]models.AvailabilityRecord, 31),
		FetchedAt:         fetchedAt,
	}
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		date := d.Format(models.DateLayout)
		entry.Records[date] = models.NewAvailabilityRecord(vendorID, date, counts[date], max, models.MatchOffDay(offDays, d))
	}
	return entry, nil
}
