package booking

import (
	"errors"
	"testing"
	"time"

	"wedbook/models"
)

func validRequest() *models.BookingRequest {
	guests := 120
	return &models.BookingRequest{
		ClientRequestID:        "crid-1",
		VendorID:               "v1",
		VendorName:             "Golden Hour Photo",
		ServiceID:              "s1",
		ServiceName:            "Full-day photography",
		EventDate:              "2030-06-14",
		EventTime:              "14:00",
		EventEndTime:           "22:00",
		GuestCount:             &guests,
		BudgetRange:            "2500-5000",
		ContactPerson:          "Sam Rivera",
		ContactPhone:           "+1 (555) 010-2030",
		ContactEmail:           "sam@example.com",
		PreferredContactMethod: models.ContactEmail,
	}
}

var validationNow = time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)

func TestValidateRequest(t *testing.T) {
	if err := ValidateRequest(validRequest(), validationNow); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *models.BookingRequest)
		field  string
	}{
		{"missing vendor", func(r *models.BookingRequest) { r.VendorID = "" }, "vendorId"},
		{"missing service", func(r *models.BookingRequest) { r.ServiceID = "" }, "serviceId"},
		{"missing date", func(r *models.BookingRequest) { r.EventDate = "" }, "eventDate"},
		{"malformed date", func(r *models.BookingRequest) { r.EventDate = "14/06/2030" }, "eventDate"},
		{"today", func(r *models.BookingRequest) { r.EventDate = "2030-06-01" }, "eventDate"},
		{"past date", func(r *models.BookingRequest) { r.EventDate = "2029-12-31" }, "eventDate"},
		{"malformed time", func(r *models.BookingRequest) { r.EventTime = "2pm" }, "eventTime"},
		{"end before start", func(r *models.BookingRequest) { r.EventEndTime = "13:00" }, "eventEndTime"},
		{"zero guests", func(r *models.BookingRequest) { g := 0; r.GuestCount = &g }, "guestCount"},
		{"unknown budget", func(r *models.BookingRequest) { r.BudgetRange = "lots" }, "budgetRange"},
		{"missing phone", func(r *models.BookingRequest) { r.ContactPhone = "" }, "contactPhone"},
		{"short phone", func(r *models.BookingRequest) { r.ContactPhone = "12345" }, "contactPhone"},
		{"bad email", func(r *models.BookingRequest) { r.ContactEmail = "sam@" }, "contactEmail"},
		{"bad contact method", func(r *models.BookingRequest) { r.PreferredContactMethod = "pigeon" }, "preferredContactMethod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := ValidateRequest(req, validationNow)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want an entry for %s", ve.Fields, tt.field)
			}
			if Kind(err) != KindValidation {
				t.Errorf("Kind = %q", Kind(err))
			}
		})
	}
}

func TestValidateRequest_OptionalFields(t *testing.T) {
	req := &models.BookingRequest{
		VendorID:               "v1",
		ServiceID:              "s1",
		EventDate:              "2030-06-02",
		ContactPhone:           "5550102030",
		PreferredContactMethod: models.ContactPhone,
	}
	if err := ValidateRequest(req, validationNow); err != nil {
		t.Errorf("minimal request rejected: %v", err)
	}
}

func TestIsLoosePhone(t *testing.T) {
	tests := map[string]bool{
		"5550102030":        true,
		"+44 20 7946 0958":  true,
		"(555) 010-2030":    true,
		"555.010.2030":      true,
		"12345":             false,
		"call me":           false,
		"+1234567890123456": false,
		"":                  false,
	}
	for in, want := range tests {
		if got := IsLoosePhone(in); got != want {
			t.Errorf("IsLoosePhone(%q) = %v, want %v", in, got, want)
		}
	}
}
