package models

import "strings"

// Booking statuses as reported by the backing store, plus the local degraded marker.
const (
	BookingPending             = "pending"
	BookingConfirmed           = "confirmed"
	BookingAccepted            = "accepted"
	BookingDeclined            = "declined"
	BookingCancelled           = "cancelled"
	BookingPendingVerification = "pending_verification"
)

// Booking is one row of a vendor's booking list on the backing store.
type Booking struct {
	ID           string `json:"id"`
	VendorID     string `json:"vendorId,omitempty"`
	ServiceName  string `json:"serviceName,omitempty"`
	EventDate    string `json:"eventDate"` // YYYY-MM-DD; longer timestamps are truncated on decode
	Status       string `json:"status"`
	ContactPhone string `json:"contactPhone,omitempty"`
}

// countingStatuses hold a vendor's day; anything else frees it.
var countingStatuses = map[string]bool{
	"":                         true, // rows without a status are treated as live
	BookingPending:             true,
	BookingConfirmed:           true,
	BookingAccepted:            true,
	"booked":                   true,
	"paid":                     true,
	"completed":                true,
	BookingPendingVerification: true,
}

// CountsTowardCapacity reports whether the booking occupies a slot on its date.
func (b Booking) CountsTowardCapacity() bool {
	return countingStatuses[strings.ToLower(strings.TrimSpace(b.Status))]
}

// VendorBookings is the normalized answer of GET /vendors/{id}/bookings.
type VendorBookings struct {
	Bookings          []Booking
	MaxBookingsPerDay int // 0 when the store did not say
}

// CreatedBooking is what the store returned for a successful POST /bookings.
type CreatedBooking struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
