package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nycre/explorer/internal/analytics"
	"github.com/nycre/explorer/internal/models"
	"github.com/nycre/explorer/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestRouter creates a bare test engine with no middleware.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func scoredProperty(bbl string, score int) analytics.ScoredProperty {
	return analytics.ScoredProperty{
		Property:      &models.Property{BBL: bbl},
		DistressScore: score,
	}
}

func TestPropertyList_Defaults(t *testing.T) {
	mockService := new(MockPropertyService)
	handler := NewPropertyHandler(mockService)

	list := &services.PropertyList{
		Count:      1,
		Offset:     0,
		Properties: []analytics.ScoredProperty{scoredProperty("1008260001", 0)},
	}
	mockService.On("List", mock.Anything, mock.Anything, services.DefaultListLimit, 0).Return(list, nil)

	router := newTestRouter()
	router.GET("/api/v1/properties", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response services.PropertyList
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 1, response.Count)
	require.Len(t, response.Properties, 1)
	assert.Equal(t, "1008260001", response.Properties[0].Property.BBL)
	mockService.AssertExpectations(t)
}

func TestPropertyList_ParsesFilterAndPaging(t *testing.T) {
	mockService := new(MockPropertyService)
	handler := NewPropertyHandler(mockService)

	mockService.On("List", mock.Anything, mock.MatchedBy(func(params analytics.FilterParams) bool {
		return params.BldgClass == "office" &&
			params.MinDistress != nil && *params.MinDistress == 10
	}), 20, 40).Return(&services.PropertyList{Properties: []analytics.ScoredProperty{}}, nil)

	router := newTestRouter()
	router.GET("/api/v1/properties", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties?bldgclass=office&minDistress=10&limit=20&offset=40", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestPropertyList_UnparseablePagingFallsBack(t *testing.T) {
	mockService := new(MockPropertyService)
	handler := NewPropertyHandler(mockService)

	mockService.On("List", mock.Anything, mock.Anything, services.DefaultListLimit, 0).
		Return(&services.PropertyList{Properties: []analytics.ScoredProperty{}}, nil)

	router := newTestRouter()
	router.GET("/api/v1/properties", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties?limit=lots&offset=some", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestPropertyList_ServiceError(t *testing.T) {
	mockService := new(MockPropertyService)
	handler := NewPropertyHandler(mockService)

	mockService.On("List", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	router := newTestRouter()
	router.GET("/api/v1/properties", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestPropertyDetail_Success(t *testing.T) {
	mockService := new(MockPropertyService)
	handler := NewPropertyHandler(mockService)

	detail := &services.PropertyDetail{
		ScoredProperty: scoredProperty("1008260001", 6),
		OpenViolations: []models.Violation{},
		Sales:          []models.Sale{},
	}
	mockService.On("Get", mock.Anything, "1008260001").Return(detail, nil)

	router := newTestRouter()
	router.GET("/api/v1/properties/:bbl", handler.Detail)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/1008260001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, float64(6), response["distress_score"])
	assert.Contains(t, response, "violations")
	assert.Contains(t, response, "sales")
}

func TestPropertyDetail_NotFound(t *testing.T) {
	mockService := new(MockPropertyService)
	handler := NewPropertyHandler(mockService)

	mockService.On("Get", mock.Anything, "9999999999").Return(nil, services.ErrPropertyNotFound)

	router := newTestRouter()
	router.GET("/api/v1/properties/:bbl", handler.Detail)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/9999999999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestOpportunities_WrapsCount(t *testing.T) {
	mockService := new(MockPropertyService)
	handler := NewPropertyHandler(mockService)

	ranked := []services.OpportunityProperty{
		{Property: &models.Property{BBL: "1008260001"}, OpportunityResult: analytics.OpportunityResult{Score: 59}},
		{Property: &models.Property{BBL: "1008270001"}, OpportunityResult: analytics.OpportunityResult{Score: 40}},
	}
	mockService.On("Opportunities", mock.Anything, services.DefaultOpportunityLimit).Return(ranked, nil)

	router := newTestRouter()
	router.GET("/api/v1/opportunities", handler.Opportunities)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/opportunities", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response OpportunitiesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 2, response.Count)
	require.Len(t, response.Properties, 2)
	assert.Equal(t, 59, response.Properties[0].Score)
}

func TestStats_PassThrough(t *testing.T) {
	mockService := new(MockPropertyService)
	handler := NewPropertyHandler(mockService)

	stats := &services.SummaryStats{
		Properties:      100,
		Sales:           40,
		ByBuildingClass: map[string]int{"O": 60, "K": 30, "X": 10},
	}
	mockService.On("Stats", mock.Anything).Return(stats, nil)

	router := newTestRouter()
	router.GET("/api/v1/stats", handler.Stats)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response services.SummaryStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 100, response.Properties)
	assert.Equal(t, 60, response.ByBuildingClass["O"])
}
