package handlers

import (
	"context"
	"io"
	"time"

	"wedbook/models"
	"wedbook/services/events"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventsHandler streams bus events to UI surfaces over Server-Sent Events.
type EventsHandler struct {
	Bus       events.Bus
	Logger    *zap.Logger
	Heartbeat time.Duration
}

type sseMessage struct {
	name    events.Name
	payload any
}

// Stream handles GET /api/events. ?vendorId= narrows the stream to one vendor.
// Only events published after the connection opens are delivered.
func (h *EventsHandler) Stream(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	vendorFilter := c.Query("vendorId")

	// publishers must never block on a slow client, so overflow is dropped
	ch := make(chan sseMessage, 64)
	for _, name := range events.Names() {
		unsubscribe := h.Bus.Subscribe(name, func(_ context.Context, n events.Name, payload any) {
			if vendorFilter != "" && vendorOf(payload) != vendorFilter {
				return
			}
			select {
			case ch <- sseMessage{name: n, payload: payload}:
			default:
				logger.Warn("events: client too slow, dropping event", zap.String("event", string(n)))
			}
		})
		defer unsubscribe()
	}

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case m := <-ch:
			c.SSEvent(string(m.name), m.payload)
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.Unix())
			return true
		}
	})
}

func vendorOf(payload any) string {
	switch p := payload.(type) {
	case models.BookingCreatedPayload:
		return p.VendorID
	case models.BookingCancelledPayload:
		return p.VendorID
	case models.BookingVerifiedPayload:
		return p.VendorID
	}
	return ""
}
