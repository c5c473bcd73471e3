package models

// VerifyPayload is the body of a booking:verify task.
type VerifyPayload struct {
	SubmissionID string `json:"submissionId"` // client request ID of the attempt
	BookingID    string `json:"bookingId,omitempty"`
	VendorID     string `json:"vendorId"`
	ServiceName  string `json:"serviceName,omitempty"`
	EventDate    string `json:"eventDate"`
	Placeholder  bool   `json:"placeholder"` // BookingID is local and will not exist on the store
}
