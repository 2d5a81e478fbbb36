package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)

	// The recommendation tunables ship with working defaults so the service
	// runs without a config file.
	assert.True(t, cfg.Recommendation.Similarity.KNNEnabled)
	assert.Equal(t, 6, cfg.Recommendation.Similarity.DefaultCount)
	assert.Equal(t, 7, cfg.Recommendation.Trending.WindowDays)
	assert.Equal(t, 30, cfg.Recommendation.Personalization.WindowDays)
	assert.Equal(t, 20, cfg.Recommendation.Personalization.MaxEvents)
	assert.Equal(t, 5, cfg.Recommendation.Personalization.TopProducts)
	assert.Equal(t, 0.7, cfg.Recommendation.Personalization.PriceBandLow)
	assert.Equal(t, 1.3, cfg.Recommendation.Personalization.PriceBandHi)
	assert.Equal(t, 50, cfg.Recommendation.RecentlyViewed.MaxEvents)
	assert.Equal(t, 8, cfg.Recommendation.RecentlyViewed.DefaultCount)
	assert.Equal(t, 4, cfg.Recommendation.CompleteTheLook.DefaultCount)
	assert.Equal(t, 2, cfg.Recommendation.CompleteTheLook.PerSubCategory)
}

func TestLoad_InteractionWeights(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	weights := cfg.Recommendation.Personalization.Weights
	require.NotEmpty(t, weights)

	// Strong signals must outrank weak ones for weighted personalization.
	assert.Greater(t, weights["purchase"], weights["add_to_cart"])
	assert.Greater(t, weights["add_to_cart"], weights["wishlist"])
	assert.Greater(t, weights["wishlist"], weights["click"])
	assert.Greater(t, weights["click"], weights["view"])
}

func TestLoad_ComplementaryMap(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	complementary := cfg.Recommendation.CompleteTheLook.Complementary
	require.Contains(t, complementary, "women")
	assert.Contains(t, complementary["women"]["dresses"], "accessories")
	assert.Contains(t, complementary["women"]["dresses"], "shoes")
	require.Contains(t, complementary, "men")
	assert.Contains(t, complementary["men"]["shirts"], "pants")
}
