package models

import (
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		count, max int
		want       AvailabilityStatus
	}{
		{0, 1, StatusAvailable},
		{0, 3, StatusAvailable},
		{1, 3, StatusBooked},
		{2, 3, StatusBooked},
		{3, 3, StatusFullyBooked},
		{4, 3, StatusFullyBooked},
		{1, 1, StatusFullyBooked},
	}
	for _, tt := range tests {
		if got := DeriveStatus(tt.count, tt.max); got != tt.want {
			t.Errorf("DeriveStatus(%d, %d) = %s, want %s", tt.count, tt.max, got, tt.want)
		}
	}
}

func TestNewAvailabilityRecord(t *testing.T) {
	t.Run("fully booked reason", func(t *testing.T) {
		rec := NewAvailabilityRecord("v1", "2030-06-14", 2, 2, nil)
		if rec.Available() {
			t.Fatal("expected unavailable")
		}
		if rec.Reason != "fully booked (2/2 bookings)" {
			t.Errorf("reason = %q", rec.Reason)
		}
	})

	t.Run("off-day overrides an empty day", func(t *testing.T) {
		rec := NewAvailabilityRecord("v1", "2030-06-14", 0, 3, &OffDay{Date: "2030-06-14", IsActive: true})
		if rec.Available() {
			t.Fatal("off-day must not be available")
		}
		if rec.Status != StatusFullyBooked {
			t.Errorf("status = %s, want fully_booked", rec.Status)
		}
		if rec.Reason != "vendor unavailable (off-day)" {
			t.Errorf("reason = %q", rec.Reason)
		}
	})

	t.Run("off-day keeps its own reason", func(t *testing.T) {
		rec := NewAvailabilityRecord("v1", "2030-06-14", 0, 3, &OffDay{Reason: "Family event", IsActive: true})
		if rec.Reason != "Family event" {
			t.Errorf("reason = %q", rec.Reason)
		}
	})

	t.Run("room left", func(t *testing.T) {
		rec := NewAvailabilityRecord("v1", "2030-06-14", 1, 3, nil)
		if !rec.Available() || rec.Status != StatusBooked || rec.Reason != "" {
			t.Errorf("unexpected record %+v", rec)
		}
	})
}

func TestMonthCacheEntry(t *testing.T) {
	e := &MonthCacheEntry{
		VendorID: "v1",
		MonthKey: "2030-02",
		Records: map[string]AvailabilityRecord{
			"2030-02-01": NewAvailabilityRecord("v1", "2030-02-01", 0, 1, nil),
		},
	}

	missing := e.MissingDates()
	if len(missing) != 27 {
		t.Fatalf("missing = %d dates, want 27", len(missing))
	}
	if missing[0] != "2030-02-02" || missing[26] != "2030-02-28" {
		t.Errorf("missing bounds = %s..%s", missing[0], missing[26])
	}

	cp := e.Clone()
	delete(cp.Records, "2030-02-01")
	if _, ok := e.Records["2030-02-01"]; !ok {
		t.Error("Clone shares the records map with the original")
	}
}

func TestMonthKeyOf(t *testing.T) {
	got, err := MonthKeyOf("2030-12-31")
	if err != nil || got != "2030-12" {
		t.Errorf("MonthKeyOf = %q, %v", got, err)
	}
	if _, err := MonthKeyOf("2030-02-30"); err == nil {
		t.Error("expected an error for an impossible date")
	}
	if _, err := ParseMonthKey("2030-13"); err == nil {
		t.Error("expected an error for month 13")
	}
}

func TestOffDayAppliesTo(t *testing.T) {
	day := func(s string) time.Time {
		d, err := ParseDate(s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	tests := []struct {
		name string
		off  OffDay
		date string
		want bool
	}{
		{"single date", OffDay{Date: "2030-06-14", IsActive: true}, "2030-06-14", true},
		{"single other date", OffDay{Date: "2030-06-14", IsActive: true}, "2030-06-15", false},
		{"inactive", OffDay{Date: "2030-06-14", IsActive: false}, "2030-06-14", false},
		{"weekly same weekday", OffDay{Date: "2030-06-03", RecurrencePattern: "weekly", IsActive: true}, "2030-06-17", true},
		{"weekly other weekday", OffDay{Date: "2030-06-03", RecurrencePattern: "weekly", IsActive: true}, "2030-06-18", false},
		{"weekly before start", OffDay{Date: "2030-06-03", RecurrencePattern: "weekly", IsActive: true}, "2030-05-27", false},
		{"weekly after end", OffDay{Date: "2030-06-03", RecurrencePattern: "weekly", RecurrenceEnd: "2030-06-30", IsActive: true}, "2030-07-01", false},
		{"monthly", OffDay{Date: "2030-01-15", RecurrencePattern: "monthly", IsActive: true}, "2030-08-15", true},
		{"yearly", OffDay{Date: "2029-12-25", RecurrencePattern: "Yearly", IsActive: true}, "2031-12-25", true},
		{"unknown pattern", OffDay{Date: "2030-06-14", RecurrencePattern: "fortnightly", IsActive: true}, "2030-06-28", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.off.AppliesTo(day(tt.date)); got != tt.want {
				t.Errorf("AppliesTo(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}
