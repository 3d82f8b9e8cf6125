package services

import (
	"context"

	"github.com/nycre/explorer/internal/analytics"
	"github.com/nycre/explorer/internal/models"
	"github.com/nycre/explorer/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockPropertyRepository is a mock implementation of PropertyRepository for testing
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Find(ctx context.Context, params analytics.FilterParams, limit, offset int) ([]*models.Property, error) {
	args := m.Called(ctx, params, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindByBBL(ctx context.Context, bbl string) (*models.Property, error) {
	args := m.Called(ctx, bbl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindByOwnerSubstring(ctx context.Context, owner string) ([]*models.Property, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindOpportunityCandidates(ctx context.Context, minFARGap float64, limit int) ([]*models.Property, error) {
	args := m.Called(ctx, minFARGap, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindWithCoordinates(ctx context.Context) ([]*models.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) AllSummaries(ctx context.Context) ([]repository.PropertySummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.PropertySummary), args.Error(1)
}

func (m *MockPropertyRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockPropertyRepository) BulkUpsert(ctx context.Context, properties []models.Property) (repository.UpsertResult, error) {
	args := m.Called(ctx, properties)
	return args.Get(0).(repository.UpsertResult), args.Error(1)
}

// MockSaleRepository is a mock implementation of SaleRepository for testing
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) RecentWithProperty(ctx context.Context, q repository.SaleQuery) ([]models.SaleWithProperty, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SaleWithProperty), args.Error(1)
}

func (m *MockSaleRepository) ByBBL(ctx context.Context, bbl string) ([]models.Sale, error) {
	args := m.Called(ctx, bbl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Sale), args.Error(1)
}

func (m *MockSaleRepository) LatestByBBLs(ctx context.Context, bbls []string) (map[string]*models.Sale, error) {
	args := m.Called(ctx, bbls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*models.Sale), args.Error(1)
}

func (m *MockSaleRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSaleRepository) BulkInsert(ctx context.Context, sales []models.Sale) (repository.UpsertResult, error) {
	args := m.Called(ctx, sales)
	return args.Get(0).(repository.UpsertResult), args.Error(1)
}

// MockViolationRepository is a mock implementation of ViolationRepository for testing
type MockViolationRepository struct {
	mock.Mock
}

func (m *MockViolationRepository) ByBBLs(ctx context.Context, bbls []string) (map[string][]models.Violation, error) {
	args := m.Called(ctx, bbls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]models.Violation), args.Error(1)
}

func (m *MockViolationRepository) OpenByBBLs(ctx context.Context, bbls []string) (map[string][]models.Violation, error) {
	args := m.Called(ctx, bbls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]models.Violation), args.Error(1)
}

func (m *MockViolationRepository) AllOpenWithCoords(ctx context.Context) ([]repository.ViolationPoint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ViolationPoint), args.Error(1)
}

func (m *MockViolationRepository) AllOpen(ctx context.Context) (map[string][]models.Violation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]models.Violation), args.Error(1)
}

func (m *MockViolationRepository) BulkUpsert(ctx context.Context, violations []models.Violation) (repository.UpsertResult, error) {
	args := m.Called(ctx, violations)
	return args.Get(0).(repository.UpsertResult), args.Error(1)
}

// test pointer helpers

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }
