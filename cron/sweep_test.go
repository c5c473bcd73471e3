package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"wedbook/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type pendingRecords struct {
	fakeRecords
	pending []models.SubmissionRecord
	err     error
}

func (p *pendingRecords) ListPendingVerification(context.Context, int64) ([]models.SubmissionRecord, error) {
	return p.pending, p.err
}

type recordingQueue struct {
	tasks []*asynq.Task
}

func (q *recordingQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func TestVerificationSweep_Run(t *testing.T) {
	records := &pendingRecords{pending: []models.SubmissionRecord{
		{ID: "crid-1", VendorID: "v1", EventDate: "2030-06-14", BookingID: "LOCAL-1", Placeholder: true},
		{ID: "crid-2", VendorID: "v2", EventDate: "2030-07-01"},
	}}
	q := &recordingQueue{}
	sweep := &VerificationSweep{Records: records, Queue: q, Limit: 10, Logger: zap.NewNop()}

	n, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 2 || len(q.tasks) != 2 {
		t.Fatalf("scheduled %d (%d tasks), want 2", n, len(q.tasks))
	}
	var p models.VerifyPayload
	if err := json.Unmarshal(q.tasks[0].Payload(), &p); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if p.SubmissionID != "crid-1" || !p.Placeholder || p.BookingID != "LOCAL-1" {
		t.Errorf("payload = %+v", p)
	}
}

func TestVerificationSweep_ListFailure(t *testing.T) {
	records := &pendingRecords{err: errors.New("mongo down")}
	sweep := &VerificationSweep{Records: records, Queue: &recordingQueue{}, Logger: zap.NewNop()}
	if _, err := sweep.Run(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestVerificationSweep_BadSpec(t *testing.T) {
	sweep := &VerificationSweep{Logger: zap.NewNop()}
	if _, err := sweep.Start("every now and then"); err == nil {
		t.Error("expected schedule error")
	}
}
