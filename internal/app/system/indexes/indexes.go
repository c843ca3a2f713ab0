// Package indexes creates the MongoDB indexes the application relies on.
package indexes

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureAll creates every index the application needs. It is called from
// EnsureSchema at startup and from the test harness so tests run against the
// same schema as production.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	if err := ensureUsers(ctx, db); err != nil {
		return err
	}
	if err := ensureFiles(ctx, db); err != nil {
		return err
	}
	if err := ensureSessions(ctx, db); err != nil {
		return err
	}
	return ensureJobs(ctx, db)
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_email"),
		},
	})
	return err
}

func ensureFiles(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("files").Indexes().CreateMany(ctx, []mongo.IndexModel{
		// Listing: owner + parent, walked in insertion order (_id).
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "parent_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_file_owner_parent"),
		},
	})
	return err
}

func ensureSessions(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("sessions").Indexes().CreateMany(ctx, []mongo.IndexModel{
		// Lookup by token (unique)
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_session_token"),
		},
		// TTL index for automatic expiry
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_session_ttl"),
		},
	})
	return err
}

func ensureJobs(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("jobs").Indexes().CreateMany(ctx, []mongo.IndexModel{
		// Claim query: queue + status + due time.
		{
			Keys:    bson.D{{Key: "queue_name", Value: 1}, {Key: "status", Value: 1}, {Key: "scheduled_at", Value: 1}},
			Options: options.Index().SetName("idx_job_claim"),
		},
	})
	return err
}
