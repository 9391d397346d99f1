package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/pkg/geo"
)

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func place(id string, lat, lng float64, age time.Duration) *entities.Place {
	return &entities.Place{
		ID:        id,
		Text:      "place " + id,
		Location:  entities.NewLocation(lat, lng),
		CreatedAt: base.Add(-age),
	}
}

func ids(cands []*Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Place.ID
	}
	return out
}

func TestRank_ByDistance(t *testing.T) {
	origin := geo.Point{Lat: 41.0082, Lng: 28.9784}
	cands := FromPlaces([]*entities.Place{
		place("far", 41.10, 29.05, 0),
		place("here", 41.0082, 28.9784, time.Hour),
		place("near", 41.0100, 28.9800, 2*time.Hour),
		{ID: "nowhere", CreatedAt: base},
	})

	ranked := Rank(cands, &origin)

	assert.Equal(t, []string{"here", "near", "far", "nowhere"}, ids(ranked))
	require.NotNil(t, ranked[0].Distance)
	assert.Equal(t, 0.0, *ranked[0].Distance)
	assert.Equal(t, "0 m", ranked[0].DistanceText)
	assert.Regexp(t, `^\d+ m$`, ranked[1].DistanceText)
	assert.Regexp(t, `^\d+\.\d km$`, ranked[2].DistanceText)
	assert.Nil(t, ranked[3].Distance)
}

func TestRank_ByRecencyWithoutOrigin(t *testing.T) {
	cands := FromPlaces([]*entities.Place{
		place("old", 0, 0, 48*time.Hour),
		place("b", 0, 0, 0),
		place("a", 0, 0, 0),
		place("mid", 0, 0, time.Hour),
	})

	ranked := Rank(cands, nil)

	assert.Equal(t, []string{"a", "b", "mid", "old"}, ids(ranked))
	for _, c := range ranked {
		assert.Nil(t, c.Distance)
		assert.Empty(t, c.DistanceText)
	}
}

type stubLookup struct {
	liked map[string]bool
	err   error
	calls int
}

func (s *stubLookup) Liked(ctx context.Context, placeIDs []string) (map[string]bool, error) {
	s.calls++
	return s.liked, s.err
}

func TestAnnotate(t *testing.T) {
	t.Run("anonymous leaves flag unset", func(t *testing.T) {
		cands := FromPlaces([]*entities.Place{place("a", 0, 0, 0)})
		require.NoError(t, Annotate(context.Background(), cands, nil))
		assert.Nil(t, cands[0].IsLiked)
	})

	t.Run("authenticated sets true and false without reordering", func(t *testing.T) {
		cands := FromPlaces([]*entities.Place{place("a", 0, 0, 0), place("b", 0, 0, 0), place("c", 0, 0, 0)})
		lookup := &stubLookup{liked: map[string]bool{"b": true}}

		require.NoError(t, Annotate(context.Background(), cands, lookup))

		assert.Equal(t, []string{"a", "b", "c"}, ids(cands))
		assert.False(t, *cands[0].IsLiked)
		assert.True(t, *cands[1].IsLiked)
		assert.False(t, *cands[2].IsLiked)
		assert.Equal(t, 1, lookup.calls)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		cands := FromPlaces([]*entities.Place{place("a", 0, 0, 0)})
		err := Annotate(context.Background(), cands, &stubLookup{err: errors.New("store down")})
		assert.Error(t, err)
	})
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: 20}, NewPage(0, 0, 20))
	assert.Equal(t, Page{Number: 1, Size: 20}, NewPage(-3, -1, 20))
	assert.Equal(t, Page{Number: 3, Size: 5}, NewPage(3, 5, 20))
	assert.Equal(t, 10, NewPage(3, 5, 20).Offset())
	assert.Equal(t, 3, NewPage(1, 10, 10).TotalPages(21))
	assert.Equal(t, 0, NewPage(1, 10, 10).TotalPages(0))
}

func TestPaginate(t *testing.T) {
	var places []*entities.Place
	for i := 0; i < 7; i++ {
		places = append(places, place(string(rune('a'+i)), 0, 0, time.Duration(i)*time.Minute))
	}
	cands := FromPlaces(places)

	assert.Equal(t, []string{"a", "b", "c"}, ids(Paginate(cands, Page{Number: 1, Size: 3})))
	assert.Equal(t, []string{"g"}, ids(Paginate(cands, Page{Number: 3, Size: 3})))
	assert.Empty(t, Paginate(cands, Page{Number: 4, Size: 3}))
	assert.Empty(t, Paginate(cands, Page{Number: math.MaxInt, Size: 20}))
}

func TestPage_OffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, Size: 20}.Offset())
	assert.Equal(t, math.MaxInt, Page{Number: math.MaxInt, Size: 20}.Offset())
	assert.Equal(t, math.MaxInt, Page{Number: math.MaxInt, Size: 20}.End())
	assert.Equal(t, math.MaxInt, Page{Number: 2, Size: math.MaxInt}.End())
	assert.Equal(t, 40, Page{Number: 2, Size: 20}.End())
	assert.Equal(t, 1, Page{Number: 1, Size: math.MaxInt}.TotalPages(5))
}

func TestProject_FieldAllowList(t *testing.T) {
	p := place("a", 1, 2, 0)
	p.Owner = "owner-1"
	p.Members = []string{"m1"}

	anonymous, err := json.Marshal(Project(FromPlaces([]*entities.Place{p})))
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(anonymous, &rows))
	require.Len(t, rows, 1)

	row := rows[0]
	assert.NotContains(t, row, "owner")
	assert.NotContains(t, row, "members")
	assert.NotContains(t, row, "isLiked")
	assert.NotContains(t, row, "distance")
	assert.NotContains(t, row, "distanceText")
	assert.Equal(t, []interface{}{}, row["photos"])
	assert.Equal(t, "a", row["id"])

	liked := false
	d := 12.0
	view := ProjectOne(&Candidate{Place: p, IsLiked: &liked, Distance: &d, DistanceText: "12 m"})
	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"isLiked":false`)
	assert.Contains(t, string(raw), `"distanceText":"12 m"`)
}
