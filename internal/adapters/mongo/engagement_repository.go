package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

// LikeRepository implements repositories.LikeRepository
type LikeRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ repositories.LikeRepository = (*LikeRepository)(nil)

// InsertIfAbsent upserts the (user, place) edge and reports whether this
// call created it
func (r *LikeRepository) InsertIfAbsent(ctx context.Context, like *entities.Like) (bool, error) {
	oid, err := placeOID(like.PlaceID)
	if err != nil {
		return false, err
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = r.now().UTC()
	}

	key := bson.M{"userId": like.UserID, "orgId": oid}
	update := bson.M{"$setOnInsert": bson.M{
		"userId":    like.UserID,
		"orgId":     oid,
		"createdAt": like.CreatedAt,
	}}

	res, err := r.coll.UpdateOne(ctx, key, update, options.Update().SetUpsert(true))
	if err != nil {
		// a concurrent upsert of the same pair lost the race on the unique index
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, apperrors.NewInternalError("failed to insert like", err)
	}
	if res.UpsertedCount == 0 {
		return false, nil
	}
	like.ID = idHex(res.UpsertedID)
	return true, nil
}

// Delete removes the (user, place) edge and reports whether one existed
func (r *LikeRepository) Delete(ctx context.Context, userID, placeID string) (bool, error) {
	oid, err := placeOID(placeID)
	if err != nil {
		return false, nil
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID, "orgId": oid})
	if err != nil {
		return false, apperrors.NewInternalError("failed to delete like", err)
	}
	return res.DeletedCount == 1, nil
}

// LikedAmong returns the subset of placeIDs liked by userID
func (r *LikeRepository) LikedAmong(ctx context.Context, userID string, placeIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(placeIDs))
	oids := placeOIDs(placeIDs)
	if len(oids) == 0 {
		return out, nil
	}

	cursor, err := r.coll.Find(ctx,
		bson.M{"userId": userID, "orgId": bson.M{"$in": oids}},
		options.Find().SetProjection(bson.M{"orgId": 1}),
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load liked state", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc likeDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperrors.NewInternalError("failed to decode like", err)
		}
		out[doc.PlaceID.Hex()] = true
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to load liked state", err)
	}
	return out, nil
}

// TopPlacesBetween ranks places by likes created inside [from, to]
func (r *LikeRepository) TopPlacesBetween(ctx context.Context, from, to time.Time, limit int) ([]entities.PlaceCount, error) {
	return topPlaces(ctx, r.coll, from, to, limit)
}

// ListByUser returns the user's likes, newest first
func (r *LikeRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entities.Like, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, pageOptions(offset, limit))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list likes", err)
	}
	defer cursor.Close(ctx)

	var docs []likeDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.NewInternalError("failed to decode likes", err)
	}
	out := make([]*entities.Like, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}

// CountByUser counts the user's likes
func (r *LikeRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count likes", err)
	}
	return int(n), nil
}

// CheckinRepository implements repositories.CheckinRepository
type CheckinRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ repositories.CheckinRepository = (*CheckinRepository)(nil)

// Create inserts a check-in. The unique (userId, orgId, date) index turns a
// second visit on the same day into a conflict.
func (r *CheckinRepository) Create(ctx context.Context, checkin *entities.Checkin) error {
	oid, err := placeOID(checkin.PlaceID)
	if err != nil {
		return err
	}
	if checkin.CreatedAt.IsZero() {
		checkin.CreatedAt = r.now().UTC()
	}

	res, err := r.coll.InsertOne(ctx, checkinDoc{
		UserID:    checkin.UserID,
		PlaceID:   oid,
		Day:       checkin.Day,
		CreatedAt: checkin.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.NewConflictError("already checked in today")
		}
		return apperrors.NewInternalError("failed to create check-in", err)
	}
	checkin.ID = idHex(res.InsertedID)
	return nil
}

// TopPlacesBetween ranks places by check-ins created inside [from, to]
func (r *CheckinRepository) TopPlacesBetween(ctx context.Context, from, to time.Time, limit int) ([]entities.PlaceCount, error) {
	return topPlaces(ctx, r.coll, from, to, limit)
}

// ListByUser returns the user's check-ins, newest first
func (r *CheckinRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entities.Checkin, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, pageOptions(offset, limit))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list check-ins", err)
	}
	defer cursor.Close(ctx)

	var docs []checkinDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.NewInternalError("failed to decode check-ins", err)
	}
	out := make([]*entities.Checkin, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}

// CountByUser counts the user's check-ins
func (r *CheckinRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count check-ins", err)
	}
	return int(n), nil
}

func topPlaces(ctx context.Context, coll *mongo.Collection, from, to time.Time, limit int) ([]entities.PlaceCount, error) {
	cursor, err := coll.Aggregate(ctx, topPlacesPipeline(from, to, limit))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate "+coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var docs []countDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.NewInternalError("failed to decode "+coll.Name()+" counts", err)
	}
	out := make([]entities.PlaceCount, 0, len(docs))
	for _, d := range docs {
		out = append(out, entities.PlaceCount{PlaceID: d.PlaceID.Hex(), Count: d.Count})
	}
	return out, nil
}

func pageOptions(offset, limit int) *options.FindOptions {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func idHex(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}
