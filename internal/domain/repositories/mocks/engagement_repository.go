package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
)

// MockLikeRepository is a testify mock of repositories.LikeRepository
type MockLikeRepository struct {
	mock.Mock
}

var _ repositories.LikeRepository = (*MockLikeRepository)(nil)

// NewMockLikeRepository creates a mock that asserts its expectations on cleanup
func NewMockLikeRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLikeRepository {
	m := &MockLikeRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockLikeRepository) InsertIfAbsent(ctx context.Context, like *entities.Like) (bool, error) {
	args := m.Called(ctx, like)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeRepository) Delete(ctx context.Context, userID, placeID string) (bool, error) {
	args := m.Called(ctx, userID, placeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeRepository) LikedAmong(ctx context.Context, userID string, placeIDs []string) (map[string]bool, error) {
	args := m.Called(ctx, userID, placeIDs)
	liked, _ := args.Get(0).(map[string]bool)
	return liked, args.Error(1)
}

func (m *MockLikeRepository) TopPlacesBetween(ctx context.Context, from, to time.Time, limit int) ([]entities.PlaceCount, error) {
	args := m.Called(ctx, from, to, limit)
	counts, _ := args.Get(0).([]entities.PlaceCount)
	return counts, args.Error(1)
}

func (m *MockLikeRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entities.Like, error) {
	args := m.Called(ctx, userID, offset, limit)
	likes, _ := args.Get(0).([]*entities.Like)
	return likes, args.Error(1)
}

func (m *MockLikeRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockCheckinRepository is a testify mock of repositories.CheckinRepository
type MockCheckinRepository struct {
	mock.Mock
}

var _ repositories.CheckinRepository = (*MockCheckinRepository)(nil)

// NewMockCheckinRepository creates a mock that asserts its expectations on cleanup
func NewMockCheckinRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCheckinRepository {
	m := &MockCheckinRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCheckinRepository) Create(ctx context.Context, checkin *entities.Checkin) error {
	return m.Called(ctx, checkin).Error(0)
}

func (m *MockCheckinRepository) TopPlacesBetween(ctx context.Context, from, to time.Time, limit int) ([]entities.PlaceCount, error) {
	args := m.Called(ctx, from, to, limit)
	counts, _ := args.Get(0).([]entities.PlaceCount)
	return counts, args.Error(1)
}

func (m *MockCheckinRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entities.Checkin, error) {
	args := m.Called(ctx, userID, offset, limit)
	checkins, _ := args.Get(0).([]*entities.Checkin)
	return checkins, args.Error(1)
}

func (m *MockCheckinRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
