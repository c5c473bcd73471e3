package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Availability endpoints
	CheckAvailability gin.HandlerFunc
	Calendar          gin.HandlerFunc

	// Booking submission endpoints
	CreateSubmission  gin.HandlerFunc
	GetSubmission     gin.HandlerFunc
	ConfirmSubmission gin.HandlerFunc
	CancelSubmission  gin.HandlerFunc
	ResetSubmission   gin.HandlerFunc
	RetrySubmission   gin.HandlerFunc

	// Store notifications
	BookingCancelledHook gin.HandlerFunc

	// Event stream
	Events gin.HandlerFunc

	// Health
	Health gin.HandlerFunc
}

// NewHandlerBundle collects the handlers' endpoints.
func NewHandlerBundle(a *AvailabilityHandler, b *BookingHandler, hooks *HooksHandler, ev *EventsHandler, health *HealthHandler) *HandlerBundle {
	return &HandlerBundle{
		CheckAvailability:    a.CheckAvailability,
		Calendar:             a.Calendar,
		CreateSubmission:     b.CreateSubmission,
		GetSubmission:        b.GetSubmission,
		ConfirmSubmission:    b.ConfirmSubmission,
		CancelSubmission:     b.CancelSubmission,
		ResetSubmission:      b.ResetSubmission,
		RetrySubmission:      b.RetrySubmission,
		BookingCancelledHook: hooks.BookingCancelled,
		Events:               ev.Stream,
		Health:               health.Health,
	}
}
