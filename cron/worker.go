package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	recordsRepo "wedbook/database/repository/records"
	"wedbook/models"
	"wedbook/services/availability"
	"wedbook/services/events"
	"wedbook/services/tasks"
	"wedbook/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BookingLister is the store read the verifier needs.
type BookingLister interface {
	VendorBookings(ctx context.Context, vendorID, monthKey string) (*models.VendorBookings, error)
}

// Verifier checks whether a degraded success actually landed on the store.
// It never re-submits.
type Verifier struct {
	Store       BookingLister
	Records     recordsRepo.SubmissionRecordRepository // nil disables phone matching and record updates
	Invalidator availability.Invalidator
	Bus         events.Bus
	Logger      *zap.Logger
}

// Verify looks the booking up and reports the outcome on the bus.
func (v *Verifier) Verify(ctx context.Context, p models.VerifyPayload) (*models.BookingVerifiedPayload, error) {
	monthKey, err := models.MonthKeyOf(p.EventDate)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", p.SubmissionID, err)
	}

	var record *models.SubmissionRecord
	if v.Records != nil {
		record, err = v.Records.GetByID(ctx, p.SubmissionID)
		if err != nil && !errors.Is(err, recordsRepo.ErrRecordNotFound) {
			return nil, fmt.Errorf("load submission %s: %w", p.SubmissionID, err)
		}
	}

	bookings, err := v.Store.VendorBookings(ctx, p.VendorID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list bookings for %s: %w", p.VendorID, err)
	}

	phone := ""
	if record != nil {
		phone = record.Request.ContactPhone
	}
	matched := MatchBooking(bookings.Bookings, p, phone)

	result := &models.BookingVerifiedPayload{
		SubmissionID: p.SubmissionID,
		VendorID:     p.VendorID,
		EventDate:    p.EventDate,
		Found:        matched != nil,
	}
	verification := models.VerificationNotFound
	if matched != nil {
		result.BookingID = matched.ID
		verification = models.VerificationVerified
	}

	if record != nil {
		if err := v.Records.UpdateVerification(ctx, p.SubmissionID, verification, result.BookingID); err != nil {
			v.Logger.Warn("verify: failed to update submission record",
				zap.String("submissionID", p.SubmissionID), zap.Error(err))
		}
	}
	// the store now knows better than the cache either way
	if err := v.Invalidator.Invalidate(ctx, p.VendorID, p.EventDate); err != nil {
		v.Logger.Warn("verify: invalidation failed", zap.String("vendorID", p.VendorID), zap.Error(err))
	}
	if err := v.Bus.Publish(ctx, events.BookingVerified, *result); err != nil {
		v.Logger.Error("verify: publish bookingVerified failed", zap.Error(err))
	}

	v.Logger.Info("verify: booking verification finished",
		zap.String("submissionID", p.SubmissionID), zap.Bool("found", result.Found),
		zap.String("bookingID", result.BookingID))
	return result, nil
}

// MatchBooking finds the submitted booking among the vendor's rows: by store ID
// when one is known, else by event date and contact phone digits.
func MatchBooking(rows []models.Booking, p models.VerifyPayload, phone string) *models.Booking {
	if p.BookingID != "" && !p.Placeholder {
		for i := range rows {
			if rows[i].ID == p.BookingID {
				return &rows[i]
			}
		}
	}
	want := digits(phone)
	if want == "" {
		return nil
	}
	for i := range rows {
		r := rows[i]
		if r.EventDate != p.EventDate || !r.CountsTowardCapacity() {
			continue
		}
		if digits(r.ContactPhone) == want {
			return &rows[i]
		}
	}
	return nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HandleTask is the asynq handler for booking:verify.
func (v *Verifier) HandleTask(ctx context.Context, task *asynq.Task) error {
	var p models.VerifyPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		v.Logger.Error("verify: invalid payload", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	_, err := v.Verify(ctx, p)
	return err
}

// InitVerifyWorker runs the verification worker in background. Shut the
// returned server down on exit.
func InitVerifyWorker(v *Verifier) *asynq.Server {
	addr, password, db := utils.QueueRedisOpt()
	redisOpts := asynq.RedisClientOpt{
		Addr:     addr,
		Password: password,
		DB:       db,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: v.Logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeVerifyBooking, v.HandleTask)

	if err := srv.Start(mux); err != nil {
		v.Logger.Error("verify worker: failed to start; degraded bookings will not be verified", zap.Error(err))
		return srv
	}
	v.Logger.Info("verify worker: started")
	return srv
}
