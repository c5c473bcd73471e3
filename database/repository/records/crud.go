package recordsRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wedbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Upsert writes a record keyed by its ID. CreatedAt is kept from the first write.
func (r *mongoSubmissionRepo) Upsert(ctx context.Context, record *models.SubmissionRecord) error {
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	doc, err := bson.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal submission record: %w", err)
	}
	var set bson.M
	if err := bson.Unmarshal(doc, &set); err != nil {
		return fmt.Errorf("marshal submission record: %w", err)
	}
	createdAt := set["createdAt"]
	delete(set, "createdAt")

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": createdAt},
	}
	_, err = r.coll.UpdateOne(ctx, bson.M{"id": record.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert submission record %s: %w", record.ID, err)
	}
	return nil
}

// GetByID returns a submission record by its ID.
func (r *mongoSubmissionRepo) GetByID(ctx context.Context, id string) (*models.SubmissionRecord, error) {
	var record models.SubmissionRecord
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListPendingVerification returns degraded successes still waiting for a verification result.
func (r *mongoSubmissionRepo) ListPendingVerification(ctx context.Context, limit int64) ([]models.SubmissionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.coll.Find(ctx, bson.M{"verification": models.VerificationPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.SubmissionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateVerification stores a verification result. bookingID is kept unless a new one is given.
func (r *mongoSubmissionRepo) UpdateVerification(ctx context.Context, id, verification, bookingID string) error {
	set := bson.M{"verification": verification, "updatedAt": time.Now()}
	if bookingID != "" {
		set["bookingId"] = bookingID
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update verification of %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}
