package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/query/filter"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

// PlaceRepository implements repositories.PlaceRepository
type PlaceRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ repositories.PlaceRepository = (*PlaceRepository)(nil)

// Create inserts a place, assigning an ObjectID when ID is empty
func (r *PlaceRepository) Create(ctx context.Context, place *entities.Place) error {
	if place.CreatedAt.IsZero() {
		place.CreatedAt = r.now().UTC()
	}
	doc, err := newPlaceDoc(place)
	if err != nil {
		return err
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.NewConflictError("place already exists")
		}
		return apperrors.NewInternalError("failed to create place", err)
	}
	if place.ID == "" {
		place.ID = idHex(res.InsertedID)
	}
	return nil
}

// GetByID retrieves a place by ID
func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*entities.Place, error) {
	oid, err := placeOID(id)
	if err != nil {
		return nil, err
	}

	var doc placeDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFoundError("place not found")
		}
		return nil, apperrors.NewInternalError("failed to get place", err)
	}
	return doc.toEntity(), nil
}

// GetByIDs retrieves the places that exist among ids
func (r *PlaceRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Place, error) {
	oids := placeOIDs(ids)
	if len(oids) == 0 {
		return []*entities.Place{}, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get places", err)
	}
	return decodePlaces(ctx, cursor)
}

// Find returns places matching pred. With an origin, located places come
// nearest first followed by places without coordinates.
func (r *PlaceRepository) Find(ctx context.Context, pred filter.Predicate, opts repositories.FindOptions) ([]*entities.Place, error) {
	query, err := translate(pred)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build place query", err)
	}

	if opts.Near == nil {
		findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
		if opts.Limit > 0 {
			findOpts.SetLimit(int64(opts.Limit))
		}
		cursor, err := r.coll.Find(ctx, query, findOpts)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to find places", err)
		}
		return decodePlaces(ctx, cursor)
	}

	cursor, err := r.coll.Aggregate(ctx, geoNearPipeline(query, *opts.Near, opts.Limit))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find places near origin", err)
	}
	located, err := decodePlaces(ctx, cursor)
	if err != nil {
		return nil, err
	}

	remaining := opts.Limit - len(located)
	if opts.Limit > 0 && remaining <= 0 {
		return located, nil
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(remaining))
	}
	cursor, err = r.coll.Find(ctx, unlocated(query), findOpts)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find places", err)
	}
	rest, err := decodePlaces(ctx, cursor)
	if err != nil {
		return nil, err
	}
	return append(located, rest...), nil
}

// Newest returns the most recently created places
func (r *PlaceRepository) Newest(ctx context.Context, limit int) ([]*entities.Place, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	cursor, err := r.coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list newest places", err)
	}
	return decodePlaces(ctx, cursor)
}

// IncrementLikeCount adds delta to likeCount in a single update
func (r *PlaceRepository) IncrementLikeCount(ctx context.Context, id string, delta int) error {
	oid, err := placeOID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, clampedAdd("likeCount", delta))
	if err != nil {
		return apperrors.NewInternalError("failed to update like count", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NewNotFoundError("place not found")
	}
	return nil
}

// AddOccupancy adds delta to currentOccupancy and returns the stored value
func (r *PlaceRepository) AddOccupancy(ctx context.Context, id string, delta int) (int, error) {
	oid, err := placeOID(id)
	if err != nil {
		return 0, err
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"currentOccupancy": 1})

	var doc struct {
		CurrentOccupancy int `bson:"currentOccupancy"`
	}
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, clampedAdd("currentOccupancy", delta), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, apperrors.NewNotFoundError("place not found")
		}
		return 0, apperrors.NewInternalError("failed to update occupancy", err)
	}
	return doc.CurrentOccupancy, nil
}

func decodePlaces(ctx context.Context, cursor *mongo.Cursor) ([]*entities.Place, error) {
	defer cursor.Close(ctx)

	var docs []placeDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.NewInternalError("failed to decode places", err)
	}
	out := make([]*entities.Place, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}
