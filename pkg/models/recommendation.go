package models

import "time"

// Strategy names reported on recommendation responses, so callers and
// metrics can tell which tier of the fallback chain served a request.
const (
	StrategyKNN            = "knn"
	StrategyCentroidKNN    = "centroid_knn"
	StrategyCategoryPrice  = "category_price"
	StrategyWeightedSignal = "weighted_signal"
	StrategyCategoryRating = "category_rating"
	StrategyTrending       = "trending"
	StrategyRecentlyViewed = "recently_viewed"
	StrategyComplementary  = "complementary"
)

// RecommendationList is the common response shape for every recommendation
// operation.
type RecommendationList struct {
	Products    []ProductSummary `json:"products"`
	Strategy    string           `json:"strategy"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// ProductCount is a per-product interaction aggregate over a time window.
type ProductCount struct {
	ProductID string `json:"product_id"`
	Count     int    `json:"count"`
}
