package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"wedbook/models"
	"wedbook/services/availability"
	"wedbook/services/recordstore"
	"wedbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilityReader is the read surface of the availability service.
type AvailabilityReader interface {
	availability.Checker
	Month(ctx context.Context, vendorID, monthKey string) (*models.MonthCacheEntry, error)
}

// AvailabilityHandler serves the calendar and date-check surfaces.
type AvailabilityHandler struct {
	Svc    AvailabilityReader
	Logger *zap.Logger
}

// CheckAvailability handles GET /api/vendors/:vendorId/availability?date=YYYY-MM-DD.
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	vendorID := c.Param("vendorId")
	date := c.Query("date")

	result, err := h.Svc.CheckAvailability(c.Request.Context(), vendorID, date)
	if err != nil {
		h.writeError(c, "CheckAvailability", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// calendarDay is one cell of the month view.
type calendarDay struct {
	Date              string                    `json:"date"`
	Status            models.AvailabilityStatus `json:"status"`
	IsAvailable       bool                      `json:"isAvailable"`
	CurrentBookings   int                       `json:"currentBookings"`
	MaxBookingsPerDay int                       `json:"maxBookingsPerDay"`
	Reason            string                    `json:"reason,omitempty"`
}

// Calendar handles GET /api/vendors/:vendorId/calendar?month=YYYY-MM.
func (h *AvailabilityHandler) Calendar(c *gin.Context) {
	vendorID := c.Param("vendorId")
	month := c.Query("month")

	entry, err := h.Svc.Month(c.Request.Context(), vendorID, month)
	if err != nil {
		h.writeError(c, "Calendar", err)
		return
	}

	days := make([]calendarDay, 0, len(entry.Records))
	for _, rec := range entry.Records {
		days = append(days, calendarDay{
			Date:              rec.Date,
			Status:            rec.Status,
			IsAvailable:       rec.Available(),
			CurrentBookings:   rec.CurrentBookings,
			MaxBookingsPerDay: rec.MaxBookingsPerDay,
			Reason:            rec.Reason,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	c.JSON(http.StatusOK, gin.H{
		"vendorId":          entry.VendorID,
		"month":             entry.MonthKey,
		"maxBookingsPerDay": entry.MaxBookingsPerDay,
		"fetchedAt":         entry.FetchedAt,
		"days":              days,
	})
}

func (h *AvailabilityHandler) writeError(c *gin.Context, op string, err error) {
	logger := getLogger(c, h.Logger)
	switch {
	case errors.Is(err, availability.ErrInvalidInput):
		utils.JSONError(c, http.StatusBadRequest, "invalid availability query", err.Error())
	case recordstore.IsTransport(err):
		logger.Warn(op+": store unreachable", zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "availability is temporarily unavailable", "please try again shortly")
	default:
		logger.Error(op+": failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "could not load availability", err.Error())
	}
}
