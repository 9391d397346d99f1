package mongo

import (
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gotham-app/backend/internal/query/filter"
	"github.com/gotham-app/backend/pkg/geo"
)

// translate turns a predicate tree into a query document
func translate(pred filter.Predicate) (bson.M, error) {
	switch p := pred.(type) {
	case nil, filter.True:
		return bson.M{}, nil

	case filter.And:
		return combine("$and", p.Terms)

	case filter.Or:
		return combine("$or", p.Terms)

	case filter.TextContains:
		return bson.M{"text": primitive.Regex{Pattern: regexp.QuoteMeta(p.Needle), Options: "i"}}, nil

	case filter.TagsAny:
		patterns := make(bson.A, 0, len(p.Tags))
		for _, tag := range p.Tags {
			patterns = append(patterns, primitive.Regex{Pattern: "^" + regexp.QuoteMeta(tag) + "$", Options: "i"})
		}
		return bson.M{"tags": bson.M{"$in": patterns}}, nil

	case filter.PercentRange:
		bounds := bson.M{"$gte": p.Min}
		if p.Max != nil {
			bounds["$lt"] = *p.Max
		}
		return bson.M{"percent": bounds}, nil

	default:
		return nil, fmt.Errorf("unsupported predicate %T", pred)
	}
}

func combine(op string, terms []filter.Predicate) (bson.M, error) {
	if len(terms) == 0 {
		if op == "$or" {
			return bson.M{"_id": bson.M{"$exists": false}}, nil
		}
		return bson.M{}, nil
	}
	parts := make(bson.A, 0, len(terms))
	for _, t := range terms {
		q, err := translate(t)
		if err != nil {
			return nil, err
		}
		parts = append(parts, q)
	}
	return bson.M{op: parts}, nil
}

// geoNearPipeline returns matching located places nearest first
func geoNearPipeline(query bson.M, near geo.Point, limit int) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near":          bson.M{"type": "Point", "coordinates": bson.A{near.Lng, near.Lat}},
			"distanceField": "distance",
			"key":           "location",
			"spherical":     true,
			"query":         query,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "distance", Value: 1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	return pipeline
}

// unlocated restricts query to places without coordinates
func unlocated(query bson.M) bson.M {
	missing := bson.M{"location": bson.M{"$exists": false}}
	if len(query) == 0 {
		return missing
	}
	return bson.M{"$and": bson.A{query, missing}}
}

// topPlacesPipeline counts engagement records per place inside [from, to]
func topPlacesPipeline(from, to time.Time, limit int) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": from, "$lte": to}}}},
		{{Key: "$group", Value: bson.M{"_id": "$orgId", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	return pipeline
}

// clampedAdd is an update pipeline adding delta to field without going below zero
func clampedAdd(field string, delta int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			field: bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$" + field, 0}}, delta}}}},
		}}},
	}
}
