package services_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gotham-app/backend/internal/application/services"
	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/domain/repositories/mocks"
	apperrors "github.com/gotham-app/backend/pkg/errors"
	"github.com/gotham-app/backend/pkg/geo"
)

func seedCafes(t *testing.T, store *repositories.Store) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedPlace(t, store, &entities.Place{ID: "p1", Text: "The Corner CAFE", Percent: 45, Tags: []string{"coffee"}, CreatedAt: base, Location: entities.NewLocation(52.5200, 13.4050)})
	seedPlace(t, store, &entities.Place{ID: "p2", Text: "Night Bar", Percent: 80, Tags: []string{"drinks"}, CreatedAt: base.Add(time.Hour), Location: entities.NewLocation(52.5300, 13.4050)})
	seedPlace(t, store, &entities.Place{ID: "p3", Text: "Library", Percent: 10, Tags: []string{"quiet", "Coffee"}, CreatedAt: base.Add(2 * time.Hour)})
}

func TestSearchService_TextAndMood(t *testing.T) {
	ctx := context.Background()
	store := newStore(newTestClock(time.Now()))
	seedCafes(t, store)
	svc := services.NewSearchService(store.Places, store.Likes, 20, 500)

	res, err := svc.Search(ctx, entities.SearchRequest{Text: "cafe", Mods: []int{entities.MoodMedium}, Page: 1, Limit: 20}, "")
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "p1", res.Data[0].ID)
	assert.Nil(t, res.Data[0].IsLiked)
	assert.Equal(t, 20, res.Page.Size)
}

func TestSearchService_NewestFirstWithoutOrigin(t *testing.T) {
	store := newStore(newTestClock(time.Now()))
	seedCafes(t, store)
	svc := services.NewSearchService(store.Places, store.Likes, 20, 500)

	res, err := svc.Search(context.Background(), entities.SearchRequest{Page: 1}, "")
	require.NoError(t, err)
	require.Len(t, res.Data, 3)
	assert.Equal(t, []string{"p3", "p2", "p1"}, []string{res.Data[0].ID, res.Data[1].ID, res.Data[2].ID})
	assert.Nil(t, res.Data[0].Distance)
}

func TestSearchService_NearestFirst(t *testing.T) {
	store := newStore(newTestClock(time.Now()))
	seedCafes(t, store)
	svc := services.NewSearchService(store.Places, store.Likes, 20, 500)

	origin := &geo.Point{Lat: 52.5290, Lng: 13.4050}
	res, err := svc.Search(context.Background(), entities.SearchRequest{Near: origin, Page: 1}, "")
	require.NoError(t, err)
	require.Len(t, res.Data, 3)

	assert.Equal(t, "p2", res.Data[0].ID)
	assert.Equal(t, "p1", res.Data[1].ID)
	assert.Equal(t, "p3", res.Data[2].ID)
	require.NotNil(t, res.Data[0].Distance)
	assert.Equal(t, "111 m", res.Data[0].DistanceText)
	assert.Nil(t, res.Data[2].Distance)
}

func TestSearchService_TagsAndLikedState(t *testing.T) {
	ctx := context.Background()
	store := newStore(newTestClock(time.Now()))
	seedCafes(t, store)
	_, err := store.Likes.InsertIfAbsent(ctx, &entities.Like{UserID: "u1", PlaceID: "p3"})
	require.NoError(t, err)
	svc := services.NewSearchService(store.Places, store.Likes, 20, 500)

	res, err := svc.Search(ctx, entities.SearchRequest{Tags: []string{"COFFEE"}, Page: 1}, "u1")
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "p3", res.Data[0].ID)
	require.NotNil(t, res.Data[0].IsLiked)
	assert.True(t, *res.Data[0].IsLiked)
	require.NotNil(t, res.Data[1].IsLiked)
	assert.False(t, *res.Data[1].IsLiked)
}

func TestSearchService_Pagination(t *testing.T) {
	store := newStore(newTestClock(time.Now()))
	seedCafes(t, store)
	svc := services.NewSearchService(store.Places, store.Likes, 20, 500)

	res, err := svc.Search(context.Background(), entities.SearchRequest{Page: 2, Limit: 2}, "")
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "p1", res.Data[0].ID)

	res, err = svc.Search(context.Background(), entities.SearchRequest{Page: 3, Limit: 2}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Data)
	assert.NotNil(t, res.Data)
}

func TestSearchService_PassesCandidateCap(t *testing.T) {
	places := mocks.NewMockPlaceRepository(t)
	likes := mocks.NewMockLikeRepository(t)
	svc := services.NewSearchService(places, likes, 20, 50)

	places.On("Find", mock.Anything, mock.Anything, repositories.FindOptions{Limit: 50}).Return([]*entities.Place{}, nil)

	res, err := svc.Search(context.Background(), entities.SearchRequest{Page: 1}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestSearchService_PageBeyondCandidateCap(t *testing.T) {
	store := newStore(newTestClock(time.Now()))
	seedCafes(t, store)
	svc := services.NewSearchService(store.Places, store.Likes, 20, 2)

	res, err := svc.Search(context.Background(), entities.SearchRequest{Page: 2, Limit: 2}, "")
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "p1", res.Data[0].ID)
}

func TestSearchService_HugePageIsEmpty(t *testing.T) {
	store := newStore(newTestClock(time.Now()))
	seedCafes(t, store)
	svc := services.NewSearchService(store.Places, store.Likes, 20, 500)

	res, err := svc.Search(context.Background(), entities.SearchRequest{Page: math.MaxInt64, Limit: 20}, "u1")
	require.NoError(t, err)
	assert.Empty(t, res.Data)
	assert.Equal(t, math.MaxInt64, res.Page.Number)
}

func TestSearchService_Get(t *testing.T) {
	ctx := context.Background()
	store := newStore(newTestClock(time.Now()))
	seedCafes(t, store)
	svc := services.NewSearchService(store.Places, store.Likes, 20, 500)

	view, err := svc.Get(ctx, "p2", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Night Bar", view.Text)
	require.NotNil(t, view.IsLiked)
	assert.False(t, *view.IsLiked)

	_, err = svc.Get(ctx, "nope", "")
	assert.True(t, apperrors.IsNotFound(err))
}
