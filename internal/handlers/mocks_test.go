package handlers

import (
	"context"

	"github.com/nycre/explorer/internal/analytics"
	"github.com/nycre/explorer/internal/models"
	"github.com/nycre/explorer/internal/services"
	"github.com/stretchr/testify/mock"
)

// MockPropertyService is a mock implementation of services.PropertyService.
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) List(ctx context.Context, params analytics.FilterParams, limit, offset int) (*services.PropertyList, error) {
	args := m.Called(ctx, params, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PropertyList), args.Error(1)
}

func (m *MockPropertyService) Get(ctx context.Context, bbl string) (*services.PropertyDetail, error) {
	args := m.Called(ctx, bbl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PropertyDetail), args.Error(1)
}

func (m *MockPropertyService) Opportunities(ctx context.Context, limit int) ([]services.OpportunityProperty, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.OpportunityProperty), args.Error(1)
}

func (m *MockPropertyService) Stats(ctx context.Context) (*services.SummaryStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SummaryStats), args.Error(1)
}

// MockCompsService is a mock implementation of services.CompsService.
type MockCompsService struct {
	mock.Mock
}

func (m *MockCompsService) FindComps(ctx context.Context, bbl string, radiusMiles float64, limit int) (*analytics.CompsResult, error) {
	args := m.Called(ctx, bbl, radiusMiles, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.CompsResult), args.Error(1)
}

// MockOwnerService is a mock implementation of services.OwnerService.
type MockOwnerService struct {
	mock.Mock
}

func (m *MockOwnerService) Search(ctx context.Context, name string) (*services.OwnerSearchResult, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.OwnerSearchResult), args.Error(1)
}

func (m *MockOwnerService) Distressed(ctx context.Context, opts analytics.DistressedOwnerOptions) ([]analytics.DistressedOwner, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.DistressedOwner), args.Error(1)
}

// MockHeatmapService is a mock implementation of services.HeatmapService.
type MockHeatmapService struct {
	mock.Mock
}

func (m *MockHeatmapService) Grid(ctx context.Context, metric string, cellSize float64) (*analytics.Grid, error) {
	args := m.Called(ctx, metric, cellSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.Grid), args.Error(1)
}

// MockSaleService is a mock implementation of services.SaleService.
type MockSaleService struct {
	mock.Mock
}

func (m *MockSaleService) Recent(ctx context.Context, q services.SalesQuery) ([]models.SaleWithProperty, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SaleWithProperty), args.Error(1)
}
