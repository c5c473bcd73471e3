package models

import (
	"strings"
	"time"
)

// Off-day recurrence patterns.
const (
	RecurrenceNone    = "none"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceYearly  = "yearly"
)

// OffDay is a vendor-declared unavailability override, independent of booking load.
type OffDay struct {
	ID                string `json:"id,omitempty"`
	VendorID          string `json:"vendorId,omitempty"`
	Date              string `json:"date"`                        // single date, or the first occurrence of a recurrence
	RecurrencePattern string `json:"recurrencePattern,omitempty"` // none|weekly|monthly|yearly
	RecurrenceEnd     string `json:"recurrenceEnd,omitempty"`     // inclusive, optional
	Reason            string `json:"reason,omitempty"`
	IsActive          bool   `json:"isActive"`
}

// AppliesTo reports whether an active off-day covers day.
func (o OffDay) AppliesTo(day time.Time) bool {
	if !o.IsActive {
		return false
	}
	start, err := time.Parse(DateLayout, o.Date)
	if err != nil {
		return false
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(start) {
		return false
	}
	if o.RecurrenceEnd != "" {
		if end, err := time.Parse(DateLayout, o.RecurrenceEnd); err == nil && day.After(end) {
			return false
		}
	}

	switch strings.ToLower(strings.TrimSpace(o.RecurrencePattern)) {
	case "", RecurrenceNone:
		return day.Equal(start)
	case RecurrenceWeekly:
		return day.Weekday() == start.Weekday()
	case RecurrenceMonthly:
		return day.Day() == start.Day()
	case RecurrenceYearly:
		return day.Month() == start.Month() && day.Day() == start.Day()
	default:
		// unknown rules only block their anchor date
		return day.Equal(start)
	}
}

// MatchOffDay returns the first active off-day covering day, or nil.
func MatchOffDay(offDays []OffDay, day time.Time) *OffDay {
	for i := range offDays {
		if offDays[i].AppliesTo(day) {
			return &offDays[i]
		}
	}
	return nil
}
