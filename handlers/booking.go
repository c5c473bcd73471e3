package handlers

import (
	"context"
	"errors"
	"net/http"

	"wedbook/middleware"
	"wedbook/models"
	"wedbook/services/booking"
	"wedbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the submission workflow as a resumable HTTP session.
type BookingHandler struct {
	Workflow booking.SubmissionWorkflow
	Sessions booking.SessionStore
	Logger   *zap.Logger
}

// CreateSubmission handles POST /api/bookings/submissions.
// It validates and re-checks availability, then parks the session awaiting confirmation.
func (h *BookingHandler) CreateSubmission(c *gin.Context) {
	logger := getLogger(c, h.Logger)

	var form models.BookingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	meta := models.RequestMetadata{
		Origin:    c.GetHeader("X-Client-Origin"),
		UserID:    middleware.UserID(c),
		UserAgent: c.Request.UserAgent(),
		ClientIP:  middleware.ClientIP(c),
	}

	s, err := h.Workflow.Prepare(c.Request.Context(), form, meta)
	if err != nil {
		logger.Error("CreateSubmission: workflow misuse", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "could not start booking", err.Error())
		return
	}
	if err := h.Sessions.Save(c.Request.Context(), s); err != nil {
		logger.Error("CreateSubmission: failed to save session", zap.String("sessionID", s.ID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "could not start booking", err.Error())
		return
	}

	c.JSON(sessionStatus(s, http.StatusCreated), s)
}

// GetSubmission handles GET /api/bookings/submissions/:sessionId.
func (h *BookingHandler) GetSubmission(c *gin.Context) {
	s, err := h.Sessions.Load(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.writeSessionError(c, "GetSubmission", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// ConfirmSubmission handles POST /api/bookings/submissions/:sessionId/confirm.
func (h *BookingHandler) ConfirmSubmission(c *gin.Context) {
	h.drive(c, "ConfirmSubmission", func(ctx context.Context, s *booking.Session) error {
		return h.Workflow.Confirm(ctx, s)
	})
}

// CancelSubmission handles POST /api/bookings/submissions/:sessionId/cancel.
func (h *BookingHandler) CancelSubmission(c *gin.Context) {
	h.drive(c, "CancelSubmission", func(_ context.Context, s *booking.Session) error {
		return h.Workflow.CancelConfirmation(s)
	})
}

// ResetSubmission handles POST /api/bookings/submissions/:sessionId/reset.
func (h *BookingHandler) ResetSubmission(c *gin.Context) {
	h.drive(c, "ResetSubmission", func(_ context.Context, s *booking.Session) error {
		return h.Workflow.Reset(s)
	})
}

// RetrySubmission handles POST /api/bookings/submissions/:sessionId/retry.
// It re-runs a failed request under a new client request ID.
func (h *BookingHandler) RetrySubmission(c *gin.Context) {
	h.drive(c, "RetrySubmission", func(ctx context.Context, s *booking.Session) error {
		return h.Workflow.Retry(ctx, s)
	})
}

// drive loads a session under its lock, applies step and saves the result.
func (h *BookingHandler) drive(c *gin.Context, op string, step func(ctx context.Context, s *booking.Session) error) {
	logger := getLogger(c, h.Logger)
	ctx := c.Request.Context()
	id := c.Param("sessionId")

	unlock, err := h.Sessions.Lock(ctx, id)
	if err != nil {
		h.writeSessionError(c, op, err)
		return
	}
	defer unlock()

	s, err := h.Sessions.Load(ctx, id)
	if err != nil {
		h.writeSessionError(c, op, err)
		return
	}

	attempts := s.Attempts
	if err := step(ctx, s); err != nil {
		h.writeSessionError(c, op, err)
		return
	}

	// the step may have already reached the store; save even if the caller went away
	if err := h.Sessions.Save(context.WithoutCancel(ctx), s); err != nil {
		logger.Error(op+": failed to save session", zap.String("sessionID", s.ID),
			zap.String("state", string(s.State)), zap.Int("attempts", s.Attempts), zap.Error(err))
		if s.Attempts == attempts {
			utils.JSONError(c, http.StatusInternalServerError, "booking state could not be saved", err.Error())
			return
		}
		// the store was reached, so the outcome is reported anyway
		s.Warnings = append(s.Warnings, "Your booking request was sent, but its progress could not be saved. Please do not submit it again.")
	}

	c.JSON(sessionStatus(s, http.StatusOK), s)
}

// sessionStatus maps a session's state to the response code.
func sessionStatus(s *booking.Session, ok int) int {
	if s.State != booking.StateError {
		return ok
	}
	switch s.ErrorKind {
	case booking.KindValidation:
		return http.StatusUnprocessableEntity
	case booking.KindAvailabilityConflict:
		return http.StatusConflict
	case booking.KindInconclusive:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (h *BookingHandler) writeSessionError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, booking.ErrSessionNotFound):
		utils.JSONError(c, http.StatusNotFound, "booking session not found or expired", "")
	case errors.Is(err, booking.ErrSessionBusy):
		utils.JSONError(c, http.StatusConflict, "booking session is busy", "another request is in progress")
	case errors.Is(err, booking.ErrIllegalTransition):
		utils.JSONError(c, http.StatusConflict, "action not allowed in the current booking state", err.Error())
	default:
		getLogger(c, h.Logger).Error(op+": failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "booking session error", err.Error())
	}
}
