package models

import "time"

// Verification states of a submission record.
const (
	VerificationNotNeeded = "not_needed"
	VerificationPending   = "pending"
	VerificationVerified  = "verified"
	VerificationNotFound  = "not_found"
)

// SubmissionRecord carries the diagnostic trail of one submission attempt.
// Verification moves from pending to verified or not_found for degraded successes.
type SubmissionRecord struct {
	ID                  string         `bson:"id" json:"id"`                               // client request ID; one record per attempt
	SessionID           string         `bson:"sessionId" json:"sessionId"`                 // workflow session that made the attempt
	VendorID            string         `bson:"vendorId" json:"vendorId"`                   // booked vendor
	EventDate           string         `bson:"eventDate" json:"eventDate"`                 // YYYY-MM-DD
	BookingID           string         `bson:"bookingId,omitempty" json:"bookingId"`       // store ID, or LOCAL-… for placeholders
	State               string         `bson:"state" json:"state"`                         // terminal workflow state
	Status              string         `bson:"status,omitempty" json:"status"`             // booking status shown to the couple
	ErrorKind           string         `bson:"errorKind,omitempty" json:"errorKind"`       // error taxonomy name when degraded or failed
	Message             string         `bson:"message,omitempty" json:"message"`           // user-facing message
	Warnings            []string       `bson:"warnings,omitempty" json:"warnings"`         // non-blocking annotations
	PendingVerification bool           `bson:"pendingVerification" json:"pendingVerification"`
	Placeholder         bool           `bson:"placeholder" json:"placeholder"`
	Verification        string         `bson:"verification" json:"verification"`
	Request             BookingRequest `bson:"request" json:"request"`
	CreatedAt           time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time      `bson:"updatedAt" json:"updatedAt"`
}
