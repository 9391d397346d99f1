package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gotham-app/backend/internal/domain/repositories"
)

// Collection names
const (
	PlacesCollection   = "orgs"
	LikesCollection    = "likes"
	CheckinsCollection = "checkins"
)

// NewStore builds the repositories over db
func NewStore(db *mongo.Database) *repositories.Store {
	return NewStoreWithClock(db, time.Now)
}

// NewStoreWithClock builds the repositories stamping records with now
func NewStoreWithClock(db *mongo.Database, now func() time.Time) *repositories.Store {
	places := db.Collection(PlacesCollection)
	return &repositories.Store{
		Places:   &PlaceRepository{coll: places, now: now},
		Likes:    &LikeRepository{coll: db.Collection(LikesCollection), now: now},
		Checkins: &CheckinRepository{coll: db.Collection(CheckinsCollection), now: now},
	}
}

// EnsureIndexes creates the geo index and the uniqueness constraints the
// engagement repositories rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		PlacesCollection: {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "likeCount", Value: -1}}},
		},
		LikesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "orgId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
		CheckinsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "orgId", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
