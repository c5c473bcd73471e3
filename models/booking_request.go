package models

import (
	"time"

	"github.com/google/uuid"
)

// Preferred contact channels.
const (
	ContactEmail   = "email"
	ContactPhone   = "phone"
	ContactMessage = "message"
)

// BudgetRanges is the closed set of budget brackets a couple can pick from.
var BudgetRanges = []string{
	"under-1000",
	"1000-2500",
	"2500-5000",
	"5000-10000",
	"10000-25000",
	"25000-plus",
	"flexible",
}

// BookingForm is what the couple-facing UI submits.
type BookingForm struct {
	VendorID               string            `json:"vendorId"`
	VendorName             string            `json:"vendorName,omitempty"`
	ServiceID              string            `json:"serviceId"`
	ServiceName            string            `json:"serviceName,omitempty"`
	ServiceType            string            `json:"serviceType,omitempty"`
	EventDate              string            `json:"eventDate"`
	EventTime              string            `json:"eventTime,omitempty"`
	EventEndTime           string            `json:"eventEndTime,omitempty"`
	EventLocation          string            `json:"eventLocation,omitempty"`
	VenueDetail            string            `json:"venueDetail,omitempty"`
	GuestCount             *int              `json:"guestCount,omitempty"`
	BudgetRange            string            `json:"budgetRange,omitempty"`
	SpecialRequests        string            `json:"specialRequests,omitempty"`
	ContactPerson          string            `json:"contactPerson,omitempty"`
	ContactPhone           string            `json:"contactPhone"`
	ContactEmail           string            `json:"contactEmail,omitempty"`
	PreferredContactMethod string            `json:"preferredContactMethod,omitempty"`
	Origin                 string            `json:"origin,omitempty"` // UI surface the form was submitted from
	ClientIdentifiers      map[string]string `json:"clientIdentifiers,omitempty"`
}

// RequestMetadata is carried for diagnostics only; it never influences the booking.
type RequestMetadata struct {
	SubmittedAt       time.Time         `bson:"submittedAt" json:"submittedAt"`
	Origin            string            `bson:"origin,omitempty" json:"origin,omitempty"`
	ClientIdentifiers map[string]string `bson:"clientIdentifiers,omitempty" json:"clientIdentifiers,omitempty"`
	UserID            string            `bson:"userId,omitempty" json:"userId,omitempty"`       // set when a bearer token was presented
	UserAgent         string            `bson:"userAgent,omitempty" json:"userAgent,omitempty"` // raw request header
	ClientIP          string            `bson:"clientIp,omitempty" json:"clientIp,omitempty"`
}

// BookingRequest is a couple's intent to book a vendor's service on a date.
// It is immutable once a terminal outcome is reached; retries go through Retry.
type BookingRequest struct {
	ClientRequestID        string          `bson:"clientRequestId" json:"clientRequestId"` // fresh per instance, sent as the idempotency key
	VendorID               string          `bson:"vendorId" json:"vendorId" validate:"required"`
	VendorName             string          `bson:"vendorName,omitempty" json:"vendorName,omitempty"`
	ServiceID              string          `bson:"serviceId" json:"serviceId" validate:"required"`
	ServiceName            string          `bson:"serviceName,omitempty" json:"serviceName,omitempty"`
	ServiceType            string          `bson:"serviceType,omitempty" json:"serviceType,omitempty"`
	EventDate              string          `bson:"eventDate" json:"eventDate" validate:"required,datetime=2006-01-02"` // YYYY-MM-DD, no time zone conversion
	EventTime              string          `bson:"eventTime,omitempty" json:"eventTime,omitempty" validate:"omitempty,datetime=15:04"`
	EventEndTime           string          `bson:"eventEndTime,omitempty" json:"eventEndTime,omitempty" validate:"omitempty,datetime=15:04"`
	EventLocation          string          `bson:"eventLocation,omitempty" json:"eventLocation,omitempty"`
	VenueDetail            string          `bson:"venueDetail,omitempty" json:"venueDetail,omitempty"`
	GuestCount             *int            `bson:"guestCount,omitempty" json:"guestCount,omitempty" validate:"omitempty,min=1,max=10000"`
	BudgetRange            string          `bson:"budgetRange,omitempty" json:"budgetRange,omitempty" validate:"omitempty,budget_range"`
	SpecialRequests        string          `bson:"specialRequests,omitempty" json:"specialRequests,omitempty" validate:"max=2000"`
	ContactPerson          string          `bson:"contactPerson,omitempty" json:"contactPerson,omitempty"`
	ContactPhone           string          `bson:"contactPhone" json:"contactPhone" validate:"required,loose_phone"`
	ContactEmail           string          `bson:"contactEmail,omitempty" json:"contactEmail,omitempty" validate:"omitempty,email"`
	PreferredContactMethod string          `bson:"preferredContactMethod" json:"preferredContactMethod" validate:"oneof=email phone message"`
	Metadata               RequestMetadata `bson:"metadata" json:"metadata" validate:"-"`
}

// NewBookingRequest builds a request instance from a submitted form.
func NewBookingRequest(form BookingForm, meta RequestMetadata, now time.Time) *BookingRequest {
	method := form.PreferredContactMethod
	if method == "" {
		method = ContactPhone
	}
	meta.SubmittedAt = now
	if meta.Origin == "" {
		meta.Origin = form.Origin
	}
	if meta.ClientIdentifiers == nil && len(form.ClientIdentifiers) > 0 {
		meta.ClientIdentifiers = form.ClientIdentifiers
	}

	var guests *int
	if form.GuestCount != nil {
		g := *form.GuestCount
		guests = &g
	}

	return &BookingRequest{
		ClientRequestID:        uuid.New().String(),
		VendorID:               form.VendorID,
		VendorName:             form.VendorName,
		ServiceID:              form.ServiceID,
		ServiceName:            form.ServiceName,
		ServiceType:            form.ServiceType,
		EventDate:              form.EventDate,
		EventTime:              form.EventTime,
		EventEndTime:           form.EventEndTime,
		EventLocation:          form.EventLocation,
		VenueDetail:            form.VenueDetail,
		GuestCount:             guests,
		BudgetRange:            form.BudgetRange,
		SpecialRequests:        form.SpecialRequests,
		ContactPerson:          form.ContactPerson,
		ContactPhone:           form.ContactPhone,
		ContactEmail:           form.ContactEmail,
		PreferredContactMethod: method,
		Metadata:               meta,
	}
}

// Retry returns a copy of the request under a new client request ID.
func (r *BookingRequest) Retry(now time.Time) *BookingRequest {
	cp := *r
	if r.GuestCount != nil {
		g := *r.GuestCount
		cp.GuestCount = &g
	}
	if r.Metadata.ClientIdentifiers != nil {
		ids := make(map[string]string, len(r.Metadata.ClientIdentifiers))
		for k, v := range r.Metadata.ClientIdentifiers {
			ids[k] = v
		}
		cp.Metadata.ClientIdentifiers = ids
	}
	cp.ClientRequestID = uuid.New().String()
	cp.Metadata.SubmittedAt = now
	return &cp
}

// CreateBookingPayload is the body of POST /bookings on the backing store.
type CreateBookingPayload struct {
	VendorID               string `json:"vendorId"`
	ServiceID              string `json:"serviceId"`
	ServiceName            string `json:"serviceName"`
	ServiceType            string `json:"serviceType"`
	EventDate              string `json:"eventDate"`
	EventTime              string `json:"eventTime,omitempty"`
	EventLocation          string `json:"eventLocation,omitempty"`
	GuestCount             *int   `json:"guestCount,omitempty"`
	BudgetRange            string `json:"budgetRange,omitempty"`
	SpecialRequests        string `json:"specialRequests,omitempty"`
	ContactPerson          string `json:"contactPerson,omitempty"`
	ContactPhone           string `json:"contactPhone"`
	ContactEmail           string `json:"contactEmail,omitempty"`
	PreferredContactMethod string `json:"preferredContactMethod"`
}

// Payload maps the request onto the store's creation contract.
func (r *BookingRequest) Payload() CreateBookingPayload {
	location := r.EventLocation
	if r.VenueDetail != "" {
		if location != "" {
			location += ", "
		}
		location += r.VenueDetail
	}
	eventTime := r.EventTime
	if eventTime != "" && r.EventEndTime != "" {
		eventTime += "-" + r.EventEndTime
	}
	return CreateBookingPayload{
		VendorID:               r.VendorID,
		ServiceID:              r.ServiceID,
		ServiceName:            r.ServiceName,
		ServiceType:            r.ServiceType,
		EventDate:              r.EventDate,
		EventTime:              eventTime,
		EventLocation:          location,
		GuestCount:             r.GuestCount,
		BudgetRange:            r.BudgetRange,
		SpecialRequests:        r.SpecialRequests,
		ContactPerson:          r.ContactPerson,
		ContactPhone:           r.ContactPhone,
		ContactEmail:           r.ContactEmail,
		PreferredContactMethod: r.PreferredContactMethod,
	}
}
