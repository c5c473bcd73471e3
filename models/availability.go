package models

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// AvailabilityStatus is derived from a day's booking load.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "available"
	StatusBooked      AvailabilityStatus = "booked" // some bookings, still room
	StatusFullyBooked AvailabilityStatus = "fully_booked"
)

// DeriveStatus is the only place status is computed from a booking count.
func DeriveStatus(count, max int) AvailabilityStatus {
	switch {
	case count >= max:
		return StatusFullyBooked
	case count > 0:
		return StatusBooked
	default:
		return StatusAvailable
	}
}

// AvailabilityRecord is one (vendor, date) pair's booking load.
type AvailabilityRecord struct {
	VendorID          string             `json:"vendorId"`
	Date              string             `json:"date"`
	CurrentBookings   int                `json:"currentBookings"`
	MaxBookingsPerDay int                `json:"maxBookingsPerDay"`
	Status            AvailabilityStatus `json:"status"`
	OffDay            bool               `json:"offDay,omitempty"`
	Reason            string             `json:"reason,omitempty"`
}

// NewAvailabilityRecord derives a record, letting an active off-day override the count.
func NewAvailabilityRecord(vendorID, date string, count, max int, offDay *OffDay) AvailabilityRecord {
	rec := AvailabilityRecord{
		VendorID:          vendorID,
		Date:              date,
		CurrentBookings:   count,
		MaxBookingsPerDay: max,
		Status:            DeriveStatus(count, max),
	}
	if offDay != nil {
		rec.OffDay = true
		rec.Status = StatusFullyBooked
		rec.Reason = offDay.Reason
		if rec.Reason == "" {
			rec.Reason = "vendor unavailable (off-day)"
		}
	} else if rec.Status == StatusFullyBooked {
		rec.Reason = fmt.Sprintf("fully booked (%d/%d bookings)", count, max)
	}
	return rec
}

// Available reports whether the record accepts another booking.
func (r AvailabilityRecord) Available() bool {
	return !r.OffDay && r.CurrentBookings < r.MaxBookingsPerDay
}

// MonthCacheEntry is a cached availability snapshot for one vendor and calendar month.
type MonthCacheEntry struct {
	VendorID          string                        `json:"vendorId"`
	MonthKey          string                        `json:"monthKey"`
	MaxBookingsPerDay int                           `json:"maxBookingsPerDay"`
	Records           map[string]AvailabilityRecord `json:"records"`
	FetchedAt         time.Time                     `json:"fetchedAt"`
}

// Clone returns a deep copy so cached entries are never shared with callers.
func (e *MonthCacheEntry) Clone() *MonthCacheEntry {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Records = make(map[string]AvailabilityRecord, len(e.Records))
	for k, v := range e.Records {
		cp.Records[k] = v
	}
	return &cp
}

// Subset copies the entry keeping only the given dates.
func (e *MonthCacheEntry) Subset(dates ...string) *MonthCacheEntry {
	cp := *e
	cp.Records = make(map[string]AvailabilityRecord, len(dates))
	for _, d := range dates {
		if rec, ok := e.Records[d]; ok {
			cp.Records[d] = rec
		}
	}
	return &cp
}

// MissingDates lists the dates of the month without a record, in calendar order.
func (e *MonthCacheEntry) MissingDates() []string {
	first, err := time.Parse(MonthLayout, e.MonthKey)
	if err != nil {
		return nil
	}
	var missing []string
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)
		if _, ok := e.Records[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// AvailabilityResult answers a point availability check.
type AvailabilityResult struct {
	VendorID          string             `json:"vendorId"`
	Date              string             `json:"date"`
	IsAvailable       bool               `json:"isAvailable"`
	Status            AvailabilityStatus `json:"status"`
	Reason            string             `json:"reason,omitempty"`
	CurrentBookings   *int               `json:"currentBookings,omitempty"`
	MaxBookingsPerDay *int               `json:"maxBookingsPerDay,omitempty"`
	Cached            bool               `json:"cached"`
}

// ResultFromRecord builds a check answer from a derived record.
func ResultFromRecord(rec AvailabilityRecord, cached bool) *AvailabilityResult {
	count, max := rec.CurrentBookings, rec.MaxBookingsPerDay
	return &AvailabilityResult{
		VendorID:          rec.VendorID,
		Date:              rec.Date,
		IsAvailable:       rec.Available(),
		Status:            rec.Status,
		Reason:            rec.Reason,
		CurrentBookings:   &count,
		MaxBookingsPerDay: &max,
		Cached:            cached,
	}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", date, err)
	}
	return t, nil
}

// MonthKeyOf returns the YYYY-MM key of the month containing date.
func MonthKeyOf(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.Format(MonthLayout), nil
}

// ParseMonthKey validates a YYYY-MM month key and returns its first day.
func ParseMonthKey(monthKey string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, monthKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", monthKey, err)
	}
	return t, nil
}
