package services

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/sartoria/vetrina/internal/config"
	"github.com/sartoria/vetrina/pkg/models"
)

// SimilarityEngine finds products resembling a target product or an
// actor's interaction history. Both methods fail softly: an unknown target
// or a too-small catalog yields an empty list, never an error, and the
// orchestrator falls back to trending.
//
// Two implementations exist and one is selected at startup from config:
// exact nearest-neighbor search over the feature matrix, and a degraded
// category-plus-price heuristic for environments where the numeric backend
// is disabled.
type SimilarityEngine interface {
	Name() string
	// HistoryName labels the strategy used by SimilarToHistory.
	HistoryName() string
	// SimilarTo returns up to k product ids ordered by similarity to the
	// target, excluding the target itself.
	SimilarTo(products []models.Product, targetID string, k int) []string
	// SimilarToHistory returns up to k product ids matching the profile of
	// the interacted products, excluding every interacted id.
	SimilarToHistory(products []models.Product, interacted []models.Product, k int) []string
}

func NewSimilarityEngine(cfg *config.SimilarityConfig, features *FeatureService, logger *logrus.Logger) SimilarityEngine {
	if cfg.KNNEnabled {
		return &knnEngine{features: features, logger: logger}
	}
	logger.Warn("Exact nearest-neighbor search disabled, using category/price heuristic")
	return &heuristicEngine{logger: logger}
}

// knnEngine runs exact brute-force nearest-neighbor search in Euclidean
// space over the standardized feature matrix. Brute force is acceptable at
// catalog scale; ties break on catalog order.
type knnEngine struct {
	features *FeatureService
	logger   *logrus.Logger
}

func (e *knnEngine) Name() string        { return models.StrategyKNN }
func (e *knnEngine) HistoryName() string { return models.StrategyCentroidKNN }

func (e *knnEngine) SimilarTo(products []models.Product, targetID string, k int) []string {
	if len(products) < 2 || k <= 0 {
		return nil
	}

	fm := e.features.BuildMatrix(products)
	query, ok := fm.Row(targetID)
	if !ok {
		return nil
	}

	exclude := map[string]bool{targetID: true}
	return nearest(fm, query, k, exclude)
}

func (e *knnEngine) SimilarToHistory(products []models.Product, interacted []models.Product, k int) []string {
	if len(products) < 2 || len(interacted) == 0 || k <= 0 {
		return nil
	}

	fm := e.features.BuildMatrix(products)

	// Centroid of the interacted products' feature rows is the ad hoc
	// query vector.
	centroid := make([]float64, FeatureDimensions)
	exclude := make(map[string]bool, len(interacted))
	found := 0
	for i := range interacted {
		exclude[interacted[i].ID] = true
		row, ok := fm.Row(interacted[i].ID)
		if !ok {
			continue
		}
		floats.Add(centroid, row)
		found++
	}
	if found == 0 {
		return nil
	}
	floats.Scale(1/float64(found), centroid)

	return nearest(fm, centroid, k, exclude)
}

func nearest(fm *FeatureMatrix, query []float64, k int, exclude map[string]bool) []string {
	type candidate struct {
		row      int
		distance float64
	}

	candidates := make([]candidate, 0, fm.Rows())
	for i := 0; i < fm.Rows(); i++ {
		if exclude[fm.ProductIDs[i]] {
			continue
		}
		candidates = append(candidates, candidate{
			row:      i,
			distance: floats.Distance(query, fm.RowAt(i), 2),
		})
	}

	// Stable sort keeps catalog order for equidistant products.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = fm.ProductIDs[c.row]
	}
	return ids
}

// heuristicEngine is the degraded strategy: same category ordered by
// absolute price difference for item similarity, interacted categories
// ordered by rating for history similarity.
type heuristicEngine struct {
	logger *logrus.Logger
}

func (e *heuristicEngine) Name() string        { return models.StrategyCategoryPrice }
func (e *heuristicEngine) HistoryName() string { return models.StrategyCategoryPrice }

func (e *heuristicEngine) SimilarTo(products []models.Product, targetID string, k int) []string {
	if len(products) < 2 || k <= 0 {
		return nil
	}

	var target *models.Product
	for i := range products {
		if products[i].ID == targetID {
			target = &products[i]
			break
		}
	}
	if target == nil {
		return nil
	}

	var candidates []models.Product
	for i := range products {
		if products[i].ID != targetID && products[i].Category == target.Category {
			candidates = append(candidates, products[i])
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return math.Abs(candidates[i].Price-target.Price) < math.Abs(candidates[j].Price-target.Price)
	})

	return productIDs(candidates, k)
}

func (e *heuristicEngine) SimilarToHistory(products []models.Product, interacted []models.Product, k int) []string {
	if len(products) < 2 || len(interacted) == 0 || k <= 0 {
		return nil
	}

	categories := make(map[string]bool, len(interacted))
	exclude := make(map[string]bool, len(interacted))
	for i := range interacted {
		categories[interacted[i].Category] = true
		exclude[interacted[i].ID] = true
	}

	var candidates []models.Product
	for i := range products {
		if !exclude[products[i].ID] && categories[products[i].Category] {
			candidates = append(candidates, products[i])
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Rating > candidates[j].Rating
	})

	return productIDs(candidates, k)
}

func productIDs(products []models.Product, k int) []string {
	if len(products) > k {
		products = products[:k]
	}
	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	return ids
}
