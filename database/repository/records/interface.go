package recordsRepo

import (
	"context"
	"errors"

	"wedbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrRecordNotFound is returned when no submission record has the given ID.
var ErrRecordNotFound = errors.New("submission record not found")

type SubmissionRecordRepository interface {
	Upsert(ctx context.Context, record *models.SubmissionRecord) error
	GetByID(ctx context.Context, id string) (*models.SubmissionRecord, error)
	ListPendingVerification(ctx context.Context, limit int64) ([]models.SubmissionRecord, error)
	UpdateVerification(ctx context.Context, id, verification, bookingID string) error
}

type mongoSubmissionRepo struct {
	coll *mongo.Collection
}

// NewMongoSubmissionRepo returns a SubmissionRecordRepository over the given database.
func NewMongoSubmissionRepo(db *mongo.Database) SubmissionRecordRepository {
	return &mongoSubmissionRepo{
		coll: db.Collection("booking_submissions"),
	}
}
