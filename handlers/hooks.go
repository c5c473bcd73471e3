package handlers

import (
	"net/http"

	"wedbook/models"
	"wedbook/services/availability"
	"wedbook/services/events"
	"wedbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HooksHandler receives change notifications from the backing store.
type HooksHandler struct {
	Invalidator availability.Invalidator
	Bus         events.Bus
	Logger      *zap.Logger
}

// BookingCancelled handles POST /api/hooks/bookings/cancelled.
// The date's cached answer is dropped before the event goes out.
func (h *HooksHandler) BookingCancelled(c *gin.Context) {
	logger := getLogger(c, h.Logger)

	var body models.BookingCancelledPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if body.VendorID == "" {
		utils.JSONError(c, http.StatusBadRequest, "vendorId is required", "")
		return
	}
	if _, err := models.ParseDate(body.EventDate); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "eventDate must be YYYY-MM-DD", err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.Invalidator.Invalidate(ctx, body.VendorID, body.EventDate); err != nil {
		logger.Error("BookingCancelled: invalidation failed", zap.String("vendorID", body.VendorID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "could not refresh availability", err.Error())
		return
	}
	if err := h.Bus.Publish(ctx, events.BookingCancelled, body); err != nil {
		logger.Error("BookingCancelled: publish failed", zap.Error(err))
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
