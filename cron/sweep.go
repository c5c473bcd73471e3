package cron

import (
	"context"
	"fmt"
	"time"

	recordsRepo "wedbook/database/repository/records"
	"wedbook/models"
	"wedbook/services/tasks"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// VerificationSweep re-schedules verification for submission records still
// pending, covering bookingCreated events lost across a restart.
type VerificationSweep struct {
	Records recordsRepo.SubmissionRecordRepository
	Queue   tasks.Enqueuer
	Limit   int64
	Logger  *zap.Logger
}

// Run schedules one verification per pending record and returns how many were handed to the queue.
func (s *VerificationSweep) Run(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	records, err := s.Records.ListPendingVerification(ctx, s.Limit)
	if err != nil {
		return 0, fmt.Errorf("list pending verifications: %w", err)
	}

	scheduled := 0
	for _, r := range records {
		err := tasks.Schedule(ctx, s.Queue, models.VerifyPayload{
			SubmissionID: r.ID,
			BookingID:    r.BookingID,
			VendorID:     r.VendorID,
			ServiceName:  r.Request.ServiceName,
			EventDate:    r.EventDate,
			Placeholder:  r.Placeholder,
		}, 0)
		if err != nil {
			s.Logger.Warn("sweep: failed to schedule verification",
				zap.String("submissionID", r.ID), zap.Error(err))
			continue
		}
		scheduled++
	}
	if len(records) > 0 {
		s.Logger.Info("sweep: pending verifications rescheduled",
			zap.Int("pending", len(records)), zap.Int("scheduled", scheduled))
	}
	return scheduled, nil
}

// Start schedules the sweep on spec.
func (s *VerificationSweep) Start(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.Run(context.Background()); err != nil {
			s.Logger.Error("sweep: run failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid verification sweep schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
