package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/query/filter"
	"github.com/gotham-app/backend/pkg/geo"
)

func TestTranslate_CompiledRequest(t *testing.T) {
	pred := filter.Compile(entities.SearchRequest{
		Text: "c.fe",
		Tags: []string{"Coffee"},
		Mods: []int{entities.MoodBusy, entities.MoodQuiet},
	})

	q, err := translate(pred)
	require.NoError(t, err)

	and, ok := q["$and"].(bson.A)
	require.True(t, ok)
	require.Len(t, and, 3)

	assert.Equal(t, bson.M{"text": primitive.Regex{Pattern: `c\.fe`, Options: "i"}}, and[0])
	assert.Equal(t, bson.M{"tags": bson.M{"$in": bson.A{primitive.Regex{Pattern: "^coffee$", Options: "i"}}}}, and[1])
	assert.Equal(t, bson.M{"$or": bson.A{
		bson.M{"percent": bson.M{"$gte": 0.0, "$lt": 30.0}},
		bson.M{"percent": bson.M{"$gte": 60.0}},
	}}, and[2])
}

func TestTranslate_Empty(t *testing.T) {
	q, err := translate(filter.True{})
	require.NoError(t, err)
	assert.Empty(t, q)

	q, err = translate(filter.Or{})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": bson.M{"$exists": false}}, q)
}

type oddPredicate struct{}

func (oddPredicate) Match(*entities.Place) bool { return true }

func TestTranslate_Unsupported(t *testing.T) {
	_, err := translate(filter.And{Terms: []filter.Predicate{oddPredicate{}}})
	assert.Error(t, err)
}

func TestGeoNearPipeline(t *testing.T) {
	p := geoNearPipeline(bson.M{}, geo.Point{Lat: 52.52, Lng: 13.405}, 25)
	require.Len(t, p, 3)

	stage := p[0][0]
	assert.Equal(t, "$geoNear", stage.Key)
	near := stage.Value.(bson.M)["near"].(bson.M)
	assert.Equal(t, bson.A{13.405, 52.52}, near["coordinates"])
	assert.Equal(t, bson.D{{Key: "$limit", Value: 25}}, p[2])

	assert.Len(t, geoNearPipeline(bson.M{}, geo.Point{}, 0), 2)
}

func TestUnlocated(t *testing.T) {
	assert.Equal(t, bson.M{"location": bson.M{"$exists": false}}, unlocated(bson.M{}))

	q := unlocated(bson.M{"percent": bson.M{"$gte": 60.0}})
	assert.Len(t, q["$and"], 2)
}

func TestTopPlacesPipeline(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

	p := topPlacesPipeline(from, to, 10)
	require.Len(t, p, 4)
	assert.Equal(t, bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}, p[2][0].Value)
	assert.Equal(t, bson.M{"createdAt": bson.M{"$gte": from, "$lte": to}}, p[0][0].Value)
}

func TestPlaceDoc_RoundTrip(t *testing.T) {
	oid := primitive.NewObjectID()
	place := &entities.Place{ID: oid.Hex(), Text: "Blue Cafe", Location: entities.NewLocation(52.52, 13.405)}

	doc, err := newPlaceDoc(place)
	require.NoError(t, err)
	assert.Equal(t, oid, doc.ID)
	require.NotNil(t, doc.Location)
	assert.Equal(t, place, doc.toEntity())

	_, err = newPlaceDoc(&entities.Place{ID: "not-hex"})
	assert.Error(t, err)

	doc, err = newPlaceDoc(&entities.Place{Text: "nowhere"})
	require.NoError(t, err)
	assert.Nil(t, doc.Location)
}
