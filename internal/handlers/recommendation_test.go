package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sartoria/vetrina/pkg/models"
)

type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) TrackInteraction(ctx context.Context, actor models.Actor, req *models.TrackInteractionRequest) (*models.Interaction, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interaction), args.Error(1)
}

func (m *MockOrchestrator) SimilarToProduct(ctx context.Context, productID string, n int) (*models.RecommendationList, error) {
	args := m.Called(ctx, productID, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationList), args.Error(1)
}

func (m *MockOrchestrator) Trending(ctx context.Context, n int) (*models.RecommendationList, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationList), args.Error(1)
}

func (m *MockOrchestrator) Personalized(ctx context.Context, actor models.Actor, n int) (*models.RecommendationList, error) {
	args := m.Called(ctx, actor, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationList), args.Error(1)
}

func (m *MockOrchestrator) WeightedPersonalized(ctx context.Context, actor models.Actor, n int) (*models.RecommendationList, error) {
	args := m.Called(ctx, actor, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationList), args.Error(1)
}

func (m *MockOrchestrator) RecentlyViewed(ctx context.Context, actor models.Actor, n int) (*models.RecommendationList, error) {
	args := m.Called(ctx, actor, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationList), args.Error(1)
}

func (m *MockOrchestrator) CompleteTheLook(ctx context.Context, productID string, n int) (*models.RecommendationList, error) {
	args := m.Called(ctx, productID, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationList), args.Error(1)
}

func setupRecommendationRouter(orchestrator *MockOrchestrator) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	handler := NewRecommendationHandler(orchestrator, logger)

	router := gin.New()
	router.GET("/api/v1/recommendations/for-product/:productId", handler.SimilarToProduct)
	router.GET("/api/v1/recommendations/trending", handler.Trending)
	router.GET("/api/v1/recommendations/personalized", handler.Personalized)
	router.GET("/api/v1/recommendations/personalized-enhanced", handler.WeightedPersonalized)
	router.GET("/api/v1/recommendations/recently-viewed", handler.RecentlyViewed)
	router.GET("/api/v1/recommendations/complete-look/:productId", handler.CompleteTheLook)
	return router
}

func sampleList(strategy string, ids ...string) *models.RecommendationList {
	products := make([]models.ProductSummary, len(ids))
	for i, id := range ids {
		products[i] = models.ProductSummary{ID: id, Name: "Product " + id}
	}
	return &models.RecommendationList{
		Products:    products,
		Strategy:    strategy,
		GeneratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecommendationHandler_SimilarToProduct(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	router := setupRecommendationRouter(orchestrator)

	orchestrator.On("SimilarToProduct", mock.Anything, "p1", 4).
		Return(sampleList(models.StrategyKNN, "p2", "p3"), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/for-product/p1?count=4", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.RecommendationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, models.StrategyKNN, response.Strategy)
	require.Len(t, response.Products, 2)
	assert.Equal(t, "p2", response.Products[0].ID)
}

func TestRecommendationHandler_SimilarToProduct_NotFound(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	router := setupRecommendationRouter(orchestrator)

	orchestrator.On("SimilarToProduct", mock.Anything, "ghost", 0).
		Return(nil, models.ErrProductNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/for-product/ghost", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "PRODUCT_NOT_FOUND")
}

func TestRecommendationHandler_InvalidCountUsesDefault(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	router := setupRecommendationRouter(orchestrator)

	// Garbage and out-of-range counts degrade to the operation default.
	orchestrator.On("Trending", mock.Anything, 0).
		Return(sampleList(models.StrategyTrending, "p1"), nil)

	for _, count := range []string{"abc", "-3", "101"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/trending?count="+count, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	}

	orchestrator.AssertNumberOfCalls(t, "Trending", 3)
}

func TestRecommendationHandler_PersonalizedPassesSessionActor(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	router := setupRecommendationRouter(orchestrator)

	orchestrator.On("Personalized", mock.Anything, mock.MatchedBy(func(actor models.Actor) bool {
		return actor.UserID == nil && actor.SessionID != nil && *actor.SessionID == "sess-9"
	}), 0).Return(sampleList(models.StrategyCentroidKNN, "p1"), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/personalized?session_id=sess-9", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	orchestrator.AssertExpectations(t)
}

func TestRecommendationHandler_RecentlyViewed(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	router := setupRecommendationRouter(orchestrator)

	orchestrator.On("RecentlyViewed", mock.Anything, mock.Anything, 0).
		Return(sampleList(models.StrategyRecentlyViewed), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/recently-viewed", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.RecommendationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(t, response.Products)
	assert.Equal(t, models.StrategyRecentlyViewed, response.Strategy)
}

func TestRecommendationHandler_CompleteTheLook_InternalError(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	router := setupRecommendationRouter(orchestrator)

	orchestrator.On("CompleteTheLook", mock.Anything, "p1", 0).
		Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/complete-look/p1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "RECOMMENDATION_GENERATION_FAILED")
}
