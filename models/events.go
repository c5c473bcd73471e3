package models

// BookingCreatedPayload is published once per submission attempt that reached submitting.
// Error and Attempted are set when the store rejected the attempt.
type BookingCreatedPayload struct {
	SubmissionID        string `json:"submissionId"`
	ID                  string `json:"id,omitempty"`
	ServiceName         string `json:"serviceName,omitempty"`
	VendorID            string `json:"vendorId,omitempty"`
	VendorName          string `json:"vendorName,omitempty"`
	EventDate           string `json:"eventDate,omitempty"`
	Status              string `json:"status,omitempty"`
	PendingVerification bool   `json:"pendingVerification,omitempty"`
	Placeholder         bool   `json:"placeholder,omitempty"`
	Error               bool   `json:"error,omitempty"`
	Attempted           bool   `json:"attempted,omitempty"`
}

// BookingCancelledPayload announces a cancellation reported by the store.
type BookingCancelledPayload struct {
	ID        string `json:"id"`
	VendorID  string `json:"vendorId"`
	EventDate string `json:"eventDate"`
}

// BookingVerifiedPayload announces the result of verifying a degraded success.
type BookingVerifiedPayload struct {
	SubmissionID string `json:"submissionId"`
	BookingID    string `json:"bookingId,omitempty"`
	VendorID     string `json:"vendorId"`
	EventDate    string `json:"eventDate"`
	Found        bool   `json:"found"`
}
