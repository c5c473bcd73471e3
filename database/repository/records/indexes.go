package recordsRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the submissions collection.
func EnsureIndexes(repo SubmissionRecordRepository) error {
	r, ok := repo.(*mongoSubmissionRepo)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Lookups by vendor and event date
		{
			Keys:    bson.D{{Key: "vendorId", Value: 1}, {Key: "eventDate", Value: 1}},
			Options: options.Index().SetName("vendor_date_idx"),
		},
		{
			Keys:    bson.D{{Key: "verification", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("verification_created_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create submission indexes: %w", err)
	}
	return nil
}
