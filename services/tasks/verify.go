package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wedbook/models"
	"wedbook/services/events"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeVerifyBooking = "booking:verify"

func NewVerifyTask(payload models.VerifyPayload, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeVerifyBooking, b)
	opts := []asynq.Option{
		asynq.ProcessIn(delay),
		asynq.MaxRetry(5),
		// one verification per attempt, however often the event is seen
		asynq.TaskID("verify:" + payload.SubmissionID),
	}
	return task, opts, nil
}

// Enqueuer is the part of *asynq.Client the subscriber uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SubscribeVerification schedules a verification for every degraded success
// announced on the bus. The returned func unsubscribes.
func SubscribeVerification(bus events.Bus, q Enqueuer, delay time.Duration, logger *zap.Logger) func() {
	return bus.Subscribe(events.BookingCreated, func(ctx context.Context, _ events.Name, payload any) {
		p, ok := payload.(models.BookingCreatedPayload)
		if !ok || p.Error || !p.PendingVerification {
			return
		}
		err := Schedule(ctx, q, models.VerifyPayload{
			SubmissionID: p.SubmissionID,
			BookingID:    p.ID,
			VendorID:     p.VendorID,
			ServiceName:  p.ServiceName,
			EventDate:    p.EventDate,
			Placeholder:  p.Placeholder,
		}, delay)
		if err != nil {
			logger.Error("tasks: failed to schedule booking verification",
				zap.String("submissionID", p.SubmissionID), zap.Error(err))
			return
		}
		logger.Info("tasks: booking verification scheduled",
			zap.String("submissionID", p.SubmissionID), zap.Duration("in", delay))
	})
}

// Schedule enqueues one verification. An already scheduled attempt is not an error.
func Schedule(ctx context.Context, q Enqueuer, p models.VerifyPayload, delay time.Duration) error {
	task, opts, err := NewVerifyTask(p, delay)
	if err != nil {
		return fmt.Errorf("build verify task: %w", err)
	}
	_, err = q.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue verify task: %w", err)
	}
	return nil
}
