package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/query/filter"
)

// MockPlaceRepository is a testify mock of repositories.PlaceRepository
type MockPlaceRepository struct {
	mock.Mock
}

var _ repositories.PlaceRepository = (*MockPlaceRepository)(nil)

// NewMockPlaceRepository creates a mock that asserts its expectations on cleanup
func NewMockPlaceRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPlaceRepository {
	m := &MockPlaceRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPlaceRepository) Create(ctx context.Context, place *entities.Place) error {
	return m.Called(ctx, place).Error(0)
}

func (m *MockPlaceRepository) GetByID(ctx context.Context, id string) (*entities.Place, error) {
	args := m.Called(ctx, id)
	place, _ := args.Get(0).(*entities.Place)
	return place, args.Error(1)
}

func (m *MockPlaceRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Place, error) {
	args := m.Called(ctx, ids)
	places, _ := args.Get(0).([]*entities.Place)
	return places, args.Error(1)
}

func (m *MockPlaceRepository) Find(ctx context.Context, pred filter.Predicate, opts repositories.FindOptions) ([]*entities.Place, error) {
	args := m.Called(ctx, pred, opts)
	places, _ := args.Get(0).([]*entities.Place)
	return places, args.Error(1)
}

func (m *MockPlaceRepository) Newest(ctx context.Context, limit int) ([]*entities.Place, error) {
	args := m.Called(ctx, limit)
	places, _ := args.Get(0).([]*entities.Place)
	return places, args.Error(1)
}

func (m *MockPlaceRepository) IncrementLikeCount(ctx context.Context, id string, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}

func (m *MockPlaceRepository) AddOccupancy(ctx context.Context, id string, delta int) (int, error) {
	args := m.Called(ctx, id, delta)
	return args.Int(0), args.Error(1)
}
