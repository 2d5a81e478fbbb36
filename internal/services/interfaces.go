package services

import (
	"context"
	"time"

	"github.com/sartoria/vetrina/pkg/models"
)

// CatalogStore is the catalog read surface the orchestrator depends on.
type CatalogStore interface {
	AllProducts(ctx context.Context) ([]models.Product, error)
	ProductByID(ctx context.Context, id string) (*models.Product, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
}

// InteractionLedger is the behavioral ledger surface the orchestrator
// depends on.
type InteractionLedger interface {
	Record(ctx context.Context, actor models.Actor, productID, kind string) (*models.Interaction, error)
	RecentInteractions(ctx context.Context, actor models.Actor, window time.Duration, limit int) ([]models.Interaction, error)
	RecentViews(ctx context.Context, actor models.Actor, limit int) ([]models.Interaction, error)
	CountsByProduct(ctx context.Context, window time.Duration) ([]models.ProductCount, error)
}

// RecommendationOrchestratorInterface is consumed by the HTTP handlers;
// tests substitute a mock.
type RecommendationOrchestratorInterface interface {
	TrackInteraction(ctx context.Context, actor models.Actor, req *models.TrackInteractionRequest) (*models.Interaction, error)
	SimilarToProduct(ctx context.Context, productID string, n int) (*models.RecommendationList, error)
	Trending(ctx context.Context, n int) (*models.RecommendationList, error)
	Personalized(ctx context.Context, actor models.Actor, n int) (*models.RecommendationList, error)
	WeightedPersonalized(ctx context.Context, actor models.Actor, n int) (*models.RecommendationList, error)
	RecentlyViewed(ctx context.Context, actor models.Actor, n int) (*models.RecommendationList, error)
	CompleteTheLook(ctx context.Context, productID string, n int) (*models.RecommendationList, error)
}
