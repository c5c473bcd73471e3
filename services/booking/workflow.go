package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wedbook/models"
	"wedbook/services/availability"
	"wedbook/services/events"
	"wedbook/services/recordstore"
	"wedbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConfirmFunc shows the summary to the couple and reports whether they confirmed.
type ConfirmFunc func(ctx context.Context, s *Session) bool

// BookingCreator is the write side of the backing store.
type BookingCreator interface {
	CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.CreatedBooking, error)
}

// AvailabilityChecker is what the workflow needs from the availability service.
type AvailabilityChecker interface {
	availability.Checker
	availability.Invalidator
}

// Recorder keeps the audit trail of submission attempts. Failures never change an outcome.
type Recorder interface {
	Upsert(ctx context.Context, rec *models.SubmissionRecord) error
}

// StoreHealth is the last known liveness of the backing store.
type StoreHealth interface {
	StoreDown() bool
}

// SubmissionWorkflow drives one booking submission from form to outcome.
// Business failures land in the session; returned errors mean misuse,
// such as calling Confirm on a session that is not awaiting confirmation.
type SubmissionWorkflow interface {
	Submit(ctx context.Context, form models.BookingForm, meta models.RequestMetadata, confirm ConfirmFunc) (*Session, error)
	Prepare(ctx context.Context, form models.BookingForm, meta models.RequestMetadata) (*Session, error)
	Confirm(ctx context.Context, s *Session) error
	CancelConfirmation(s *Session) error
	Reset(s *Session) error
	Retry(ctx context.Context, s *Session) error
}

// Config tunes the workflow.
type Config struct {
	SubmitTimeout         time.Duration // POST /bookings deadline
	CheckTimeout          time.Duration // availability re-check deadline, 0 for none
	ProceedOnInconclusive bool          // a timed out re-check warns instead of blocking
	SupportContact        string
}

// DefaultSubmissionWorkflow implements SubmissionWorkflow.
type DefaultSubmissionWorkflow struct {
	availability AvailabilityChecker
	store        BookingCreator
	bus          events.Bus
	recorder     Recorder
	health       StoreHealth
	cfg          Config
	logger       *zap.Logger
	now          func() time.Time
}

// NewSubmissionWorkflow wires a workflow. recorder and health may be nil.
func NewSubmissionWorkflow(
	avail AvailabilityChecker,
	store BookingCreator,
	bus events.Bus,
	recorder Recorder,
	health StoreHealth,
	cfg Config,
	logger *zap.Logger,
) *DefaultSubmissionWorkflow {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 8 * time.Second
	}
	return &DefaultSubmissionWorkflow{
		availability: avail,
		store:        store,
		bus:          bus,
		recorder:     recorder,
		health:       health,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Submit runs the whole pipeline: prepare, ask confirm, then submit.
// A nil confirm or a false answer cancels back to idle.
func (w *DefaultSubmissionWorkflow) Submit(ctx context.Context, form models.BookingForm, meta models.RequestMetadata, confirm ConfirmFunc) (*Session, error) {
	s, err := w.Prepare(ctx, form, meta)
	if err != nil || s.State != StateAwaitingUserConfirmation {
		return s, err
	}
	if confirm == nil || !confirm(ctx, s) {
		return s, w.CancelConfirmation(s)
	}
	return s, w.Confirm(ctx, s)
}

// Prepare starts a session and runs it up to awaiting_user_confirmation, or to error.
func (w *DefaultSubmissionWorkflow) Prepare(ctx context.Context, form models.BookingForm, meta models.RequestMetadata) (*Session, error) {
	now := w.now()
	s := NewSession(now)
	return s, w.prepare(ctx, s, models.NewBookingRequest(form, meta, now))
}

// Retry re-enters the workflow from error with a fresh copy of the failed request.
func (w *DefaultSubmissionWorkflow) Retry(ctx context.Context, s *Session) error {
	if s.State != StateError || s.Request == nil {
		return fmt.Errorf("%w: retry on %s", ErrIllegalTransition, s.State)
	}
	req := s.Request.Retry(w.now())
	if err := w.Reset(s); err != nil {
		return err
	}
	return w.prepare(ctx, s, req)
}

func (w *DefaultSubmissionWorkflow) prepare(ctx context.Context, s *Session, req *models.BookingRequest) error {
	if err := s.transition(evSubmit, w.now()); err != nil {
		return err
	}
	s.Request = req

	if err := ValidateRequest(req, w.now()); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			s.FieldErrors = ve.Fields
		}
		return w.reject(s, evInvalid, err, "Please correct the highlighted fields and try again.")
	}
	if err := s.transition(evValid, w.now()); err != nil {
		return err
	}

	checkCtx := ctx
	if w.cfg.CheckTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, w.cfg.CheckTimeout)
		defer cancel()
	}
	result, err := w.availability.CheckAvailability(checkCtx, req.VendorID, req.EventDate)
	switch {
	case err != nil && recordstore.IsTransport(err) && w.cfg.ProceedOnInconclusive:
		warn := &InconclusiveAvailabilityError{Date: req.EventDate, Err: err}
		w.logger.Warn("booking: availability re-check inconclusive, proceeding",
			zap.String("sessionID", s.ID), zap.String("vendorID", req.VendorID), zap.Error(err))
		s.Warnings = append(s.Warnings, fmt.Sprintf(
			"We could not confirm availability for %s. The vendor will confirm your request.", req.EventDate))
		s.err = warn
	case err != nil && recordstore.IsTransport(err):
		return w.reject(s, evUnavailable, &InconclusiveAvailabilityError{Date: req.EventDate, Err: err},
			"We could not check availability right now. Please try again in a moment.")
	case err != nil:
		return w.reject(s, evUnavailable, &ServerError{Op: "availability check", Detail: err.Error(), Err: err},
			"We could not check availability right now. Please try again in a moment.")
	case !result.IsAvailable:
		s.Availability = result
		conflict := &AvailabilityConflict{VendorID: req.VendorID, Date: req.EventDate, Reason: result.Reason}
		return w.reject(s, evUnavailable, conflict, fmt.Sprintf(
			"%s is not available for %s (%s). Please choose another date.", req.EventDate, vendorLabel(req), result.Reason))
	default:
		s.Availability = result
	}

	if err := s.transition(evAvailable, w.now()); err != nil {
		return err
	}
	s.Summary = buildSummary(req, s.Warnings)
	return nil
}

// reject moves a pre-submission step to error. Nothing was sent, so nothing is published.
func (w *DefaultSubmissionWorkflow) reject(s *Session, ev event, err error, message string) error {
	if terr := s.transition(ev, w.now()); terr != nil {
		return terr
	}
	s.err = err
	s.ErrorKind = Kind(err)
	s.Message = message
	s.Outcome = &Outcome{
		State:       StateError,
		Message:     message,
		ErrorKind:   s.ErrorKind,
		FieldErrors: s.FieldErrors,
		Retryable:   s.ErrorKind != KindValidation,
		Warnings:    s.Warnings,
	}
	utils.IncSubmissionOutcome(s.ErrorKind)
	w.logger.Info("booking: submission rejected before sending",
		zap.String("sessionID", s.ID), zap.String("kind", s.ErrorKind), zap.Error(err))
	return nil
}

// CancelConfirmation returns to idle without any side effect.
func (w *DefaultSubmissionWorkflow) CancelConfirmation(s *Session) error {
	if err := s.transition(evCancel, w.now()); err != nil {
		return err
	}
	s.clear()
	s.Message = "Booking request not sent."
	s.Outcome = &Outcome{State: StateIdle, Cancelled: true, Message: s.Message}
	return nil
}

// Reset clears a finished attempt. Attempts and history are kept.
func (w *DefaultSubmissionWorkflow) Reset(s *Session) error {
	if err := s.transition(evReset, w.now()); err != nil {
		return err
	}
	s.clear()
	return nil
}

// Confirm sends the prepared request and classifies the answer.
// Exactly one bookingCreated event is published per call that reaches submitting.
func (w *DefaultSubmissionWorkflow) Confirm(ctx context.Context, s *Session) error {
	if err := s.transition(evConfirm, w.now()); err != nil {
		return err
	}
	s.Attempts++
	req := s.Request

	if w.health != nil && w.health.StoreDown() {
		s.Warnings = append(s.Warnings, "The booking service was recently unreachable; your request may take longer to confirm.")
	}

	submitCtx, cancel := context.WithTimeout(ctx, w.cfg.SubmitTimeout)
	created, err := w.store.CreateBooking(submitCtx, req)
	cancel()

	// the couple's request is over, but the aftermath must still happen
	after := context.WithoutCancel(ctx)

	switch {
	case err == nil:
		status := created.Status
		if status == "" {
			status = models.BookingPending
		}
		return w.finishSuccess(after, s, created.ID, status, false, false, nil,
			fmt.Sprintf("Your booking request was sent to %s.", vendorLabel(req)))
	case recordstore.IsNotFound(err):
		return w.finishSuccess(after, s, "LOCAL-"+uuid.New().String(), models.BookingPendingVerification, true, true,
			&EndpointNotFoundError{Err: err},
			"Your booking request was saved and will be confirmed shortly.")
	case recordstore.IsTransport(err):
		return w.finishSuccess(after, s, "", models.BookingPendingVerification, true, false,
			&TransportError{Err: err},
			"We could not confirm that your request was received. We will verify it shortly; please do not submit it again.")
	default:
		return w.finishFailure(after, s, classifyServerError(err))
	}
}

func classifyServerError(err error) *ServerError {
	se := &ServerError{Op: "booking submission", Detail: err.Error(), Err: err}
	var status *recordstore.StatusError
	if errors.As(err, &status) {
		se.Status = status.Status
		if status.Body != "" {
			se.Detail = status.Body
		}
	}
	return se
}

// finishSuccess is the only place a submission invalidates availability.
func (w *DefaultSubmissionWorkflow) finishSuccess(
	ctx context.Context,
	s *Session,
	bookingID, status string,
	pending, placeholder bool,
	degraded error,
	message string,
) error {
	if err := s.transition(evSucceeded, w.now()); err != nil {
		return err
	}
	req := s.Request
	s.err = degraded
	s.ErrorKind = Kind(degraded)
	s.Message = message
	s.Outcome = &Outcome{
		State:               StateSuccess,
		BookingID:           bookingID,
		Status:              status,
		Confirmed:           !pending,
		PendingVerification: pending,
		Placeholder:         placeholder,
		Message:             message,
		ErrorKind:           s.ErrorKind,
		Warnings:            s.Warnings,
	}

	if err := w.availability.Invalidate(ctx, req.VendorID, req.EventDate); err != nil {
		w.logger.Warn("booking: availability invalidation failed",
			zap.String("sessionID", s.ID), zap.String("vendorID", req.VendorID), zap.Error(err))
	}

	w.publish(ctx, models.BookingCreatedPayload{
		SubmissionID:        req.ClientRequestID,
		ID:                  bookingID,
		ServiceName:         req.ServiceName,
		VendorID:            req.VendorID,
		VendorName:          req.VendorName,
		EventDate:           req.EventDate,
		Status:              status,
		PendingVerification: pending,
		Placeholder:         placeholder,
	})

	outcome := "confirmed"
	switch {
	case placeholder:
		outcome = "placeholder"
	case pending:
		outcome = "pending_verification"
	}
	utils.IncSubmissionOutcome(outcome)
	w.record(ctx, s)

	w.logger.Info("booking: submission succeeded",
		zap.String("sessionID", s.ID), zap.String("bookingID", bookingID),
		zap.String("status", status), zap.String("outcome", outcome))
	return nil
}

func (w *DefaultSubmissionWorkflow) finishFailure(ctx context.Context, s *Session, serr *ServerError) error {
	if err := s.transition(evFailed, w.now()); err != nil {
		return err
	}
	req := s.Request
	s.err = serr
	s.ErrorKind = KindServer
	s.Message = "Your booking request could not be submitted. Please try again."
	if w.cfg.SupportContact != "" {
		s.Message += " If the problem persists, contact " + w.cfg.SupportContact + "."
	}
	s.Outcome = &Outcome{
		State:          StateError,
		Message:        s.Message,
		ErrorKind:      KindServer,
		Retryable:      true,
		SupportContact: w.cfg.SupportContact,
		Warnings:       s.Warnings,
	}

	w.publish(ctx, models.BookingCreatedPayload{
		SubmissionID: req.ClientRequestID,
		ServiceName:  req.ServiceName,
		VendorID:     req.VendorID,
		VendorName:   req.VendorName,
		EventDate:    req.EventDate,
		Error:        true,
		Attempted:    true,
	})
	utils.IncSubmissionOutcome("error")
	w.record(ctx, s)

	w.logger.Error("booking: submission failed",
		zap.String("sessionID", s.ID), zap.Int("status", serr.Status), zap.Error(serr))
	return nil
}

func (w *DefaultSubmissionWorkflow) publish(ctx context.Context, payload models.BookingCreatedPayload) {
	if err := w.bus.Publish(ctx, events.BookingCreated, payload); err != nil {
		w.logger.Error("booking: publish bookingCreated failed", zap.Error(err))
	}
}

func (w *DefaultSubmissionWorkflow) record(ctx context.Context, s *Session) {
	if w.recorder == nil {
		return
	}
	now := w.now()
	verification := models.VerificationNotNeeded
	if s.Outcome.PendingVerification {
		verification = models.VerificationPending
	}
	rec := &models.SubmissionRecord{
		ID:                  s.Request.ClientRequestID,
		SessionID:           s.ID,
		VendorID:            s.Request.VendorID,
		EventDate:           s.Request.EventDate,
		BookingID:           s.Outcome.BookingID,
		State:               string(s.State),
		Status:              s.Outcome.Status,
		ErrorKind:           s.ErrorKind,
		Message:             s.Message,
		Warnings:            s.Warnings,
		PendingVerification: s.Outcome.PendingVerification,
		Placeholder:         s.Outcome.Placeholder,
		Verification:        verification,
		Request:             *s.Request,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := w.recorder.Upsert(ctx, rec); err != nil {
		w.logger.Warn("booking: failed to record submission",
			zap.String("sessionID", s.ID), zap.Error(err))
	}
}

func vendorLabel(req *models.BookingRequest) string {
	if req.VendorName != "" {
		return req.VendorName
	}
	return "the vendor"
}

// buildSummary renders what the couple is about to send.
func buildSummary(req *models.BookingRequest, warnings []string) *Summary {
	p := req.Payload()
	sum := &Summary{
		VendorID:               req.VendorID,
		VendorName:             req.VendorName,
		ServiceName:            req.ServiceName,
		ServiceType:            req.ServiceType,
		EventDate:              req.EventDate,
		EventTime:              p.EventTime,
		EventLocation:          p.EventLocation,
		GuestCount:             req.GuestCount,
		ContactPerson:          req.ContactPerson,
		ContactPhone:           req.ContactPhone,
		ContactEmail:           req.ContactEmail,
		PreferredContactMethod: req.PreferredContactMethod,
		Warnings:               warnings,
	}

	var b strings.Builder
	service := req.ServiceName
	if service == "" {
		service = "Service"
	}
	fmt.Fprintf(&b, "%s with %s on %s", service, vendorLabel(req), req.EventDate)
	if sum.EventTime != "" {
		fmt.Fprintf(&b, " at %s", sum.EventTime)
	}
	if sum.EventLocation != "" {
		fmt.Fprintf(&b, ", %s", sum.EventLocation)
	}
	if req.GuestCount != nil {
		fmt.Fprintf(&b, ", %d guests", *req.GuestCount)
	}
	contact := req.ContactPhone
	if req.ContactPerson != "" {
		contact = req.ContactPerson + " (" + req.ContactPhone + ")"
	}
	fmt.Fprintf(&b, ". Contact: %s by %s.", contact, req.PreferredContactMethod)
	sum.Text = b.String()
	return sum
}
