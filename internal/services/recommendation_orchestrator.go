package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/config"
	"github.com/sartoria/vetrina/pkg/models"
)

var (
	recommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetrina_recommendations_served_total",
			Help: "Recommendation responses by operation and serving strategy",
		},
		[]string{"operation", "strategy"},
	)
	interactionsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetrina_interactions_tracked_total",
			Help: "Interactions recorded in the ledger by type",
		},
		[]string{"interaction_type"},
	)
)

// RecommendationOrchestrator composes the catalog, the interaction ledger
// and the similarity engine into the recommendation operations. Every
// operation is total for soft conditions: thin history or a thin catalog
// degrades through the fallback chain down to trending, never into an
// error. Only a hard dependency failure or an unknown target product
// surfaces as an error.
type RecommendationOrchestrator struct {
	catalog CatalogStore
	ledger  InteractionLedger
	engine  SimilarityEngine
	redis   *redis.Client
	cfg     *config.RecommendationConfig
	logger  *logrus.Logger
}

func NewRecommendationOrchestrator(
	catalog CatalogStore,
	ledger InteractionLedger,
	engine SimilarityEngine,
	redisClient *redis.Client,
	cfg *config.RecommendationConfig,
	logger *logrus.Logger,
) *RecommendationOrchestrator {
	return &RecommendationOrchestrator{
		catalog: catalog,
		ledger:  ledger,
		engine:  engine,
		redis:   redisClient,
		cfg:     cfg,
		logger:  logger,
	}
}

// TrackInteraction validates the target product and appends the event to
// the ledger. Unknown products are rejected so the ledger never references
// a product the catalog cannot resolve.
func (o *RecommendationOrchestrator) TrackInteraction(ctx context.Context, actor models.Actor, req *models.TrackInteractionRequest) (*models.Interaction, error) {
	if _, err := o.catalog.ProductByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	if actor.UserID == nil && req.SessionID != nil {
		actor.SessionID = req.SessionID
	}

	interaction, err := o.ledger.Record(ctx, actor, req.ProductID, req.Type)
	if err != nil {
		return nil, err
	}

	interactionsTracked.WithLabelValues(req.Type).Inc()
	return interaction, nil
}

// SimilarToProduct returns products resembling the target. An unknown
// target is an error; a catalog too small for similarity falls back to
// trending.
func (o *RecommendationOrchestrator) SimilarToProduct(ctx context.Context, productID string, n int) (*models.RecommendationList, error) {
	n = o.count(n, o.cfg.Similarity.DefaultCount)

	if _, err := o.catalog.ProductByID(ctx, productID); err != nil {
		return nil, err
	}

	products, err := o.catalog.AllProducts(ctx)
	if err != nil {
		return nil, err
	}

	ids := o.engine.SimilarTo(products, productID, n)
	if len(ids) == 0 {
		return o.trendingFallback(ctx, "similar_to", n)
	}

	return o.serve("similar_to", o.engine.Name(), pickByID(products, ids)), nil
}

// Trending ranks products by interaction volume inside the trending window
// and pads with the highest-rated rest of the catalog, so the response
// always carries min(n, catalog size) products. Results are cached briefly
// in Redis; the cache is soft and a miss or Redis outage just recomputes.
func (o *RecommendationOrchestrator) Trending(ctx context.Context, n int) (*models.RecommendationList, error) {
	n = o.count(n, o.cfg.Trending.DefaultCount)

	cacheKey := fmt.Sprintf("recommendations:trending:%d", n)
	if cached := o.cacheGet(ctx, cacheKey); cached != nil {
		recommendationsServed.WithLabelValues("trending", models.StrategyTrending).Inc()
		return cached, nil
	}

	products, err := o.catalog.AllProducts(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := o.ledger.CountsByProduct(ctx, o.window(o.cfg.Trending.WindowDays))
	if err != nil {
		return nil, err
	}

	countByID := make(map[string]int, len(counts))
	for _, c := range counts {
		countByID[c.ProductID] = c.Count // deleted products simply never match
	}

	var ranked, rest []models.Product
	for i := range products {
		if countByID[products[i].ID] > 0 {
			ranked = append(ranked, products[i])
		} else {
			rest = append(rest, products[i])
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if countByID[ranked[i].ID] != countByID[ranked[j].ID] {
			return countByID[ranked[i].ID] > countByID[ranked[j].ID]
		}
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		return ranked[i].Reviews > ranked[j].Reviews
	})

	// Pad with the highest-rated remaining products so a cold ledger still
	// yields a full page.
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].Rating != rest[j].Rating {
			return rest[i].Rating > rest[j].Rating
		}
		return rest[i].Reviews > rest[j].Reviews
	})

	picked := ranked
	if len(picked) > n {
		picked = picked[:n]
	}
	for i := range rest {
		if len(picked) == n {
			break
		}
		picked = append(picked, rest[i])
	}

	list := o.serve("trending", models.StrategyTrending, picked)
	o.cacheSet(ctx, cacheKey, list)
	return list, nil
}

// Personalized recommends against the actor's recent interaction history.
// No usable history means trending.
func (o *RecommendationOrchestrator) Personalized(ctx context.Context, actor models.Actor, n int) (*models.RecommendationList, error) {
	n = o.count(n, o.cfg.Personalization.DefaultCount)

	interacted, products, err := o.interactionProfile(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(interacted) == 0 {
		return o.trendingFallback(ctx, "personalized", n)
	}

	ids := o.engine.SimilarToHistory(products, interacted, n)
	if len(ids) == 0 {
		return o.trendingFallback(ctx, "personalized", n)
	}

	return o.serve("personalized", o.engine.HistoryName(), pickByID(products, ids)), nil
}

// WeightedPersonalized scores the actor's history by interaction weight,
// derives preferred categories and a price band from the top products, and
// recommends unseen products inside that profile ordered by rating.
func (o *RecommendationOrchestrator) WeightedPersonalized(ctx context.Context, actor models.Actor, n int) (*models.RecommendationList, error) {
	n = o.count(n, o.cfg.Personalization.DefaultCount)

	// The weighted profile reads the whole window uncapped; limiting events
	// would truncate the strongest signals for heavy interactors.
	history, err := o.ledger.RecentInteractions(ctx, actor,
		o.window(o.cfg.Personalization.WindowDays), 0)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return o.trendingFallback(ctx, "weighted_personalized", n)
	}

	top := o.topWeightedProducts(history)

	anchors, err := o.catalog.ProductsByIDs(ctx, top)
	if err != nil {
		return nil, err
	}
	if len(anchors) == 0 {
		return o.trendingFallback(ctx, "weighted_personalized", n)
	}

	categories := make(map[string]bool, len(anchors))
	minPrice, maxPrice := anchors[0].Price, anchors[0].Price
	for i := range anchors {
		categories[anchors[i].Category] = true
		if anchors[i].Price < minPrice {
			minPrice = anchors[i].Price
		}
		if anchors[i].Price > maxPrice {
			maxPrice = anchors[i].Price
		}
	}
	priceLow := minPrice * o.cfg.Personalization.PriceBandLow
	priceHigh := maxPrice * o.cfg.Personalization.PriceBandHi

	interacted := make(map[string]bool, len(history))
	for i := range history {
		interacted[history[i].ProductID] = true
	}

	products, err := o.catalog.AllProducts(ctx)
	if err != nil {
		return nil, err
	}

	var inBand, outOfBand []models.Product
	for i := range products {
		p := products[i]
		if interacted[p.ID] || !categories[p.Category] {
			continue
		}
		if p.Price >= priceLow && p.Price <= priceHigh {
			inBand = append(inBand, p)
		} else {
			outOfBand = append(outOfBand, p)
		}
	}

	byRating := func(s []models.Product) func(i, j int) bool {
		return func(i, j int) bool { return s[i].Rating > s[j].Rating }
	}
	sort.SliceStable(inBand, byRating(inBand))
	sort.SliceStable(outOfBand, byRating(outOfBand))

	// Band matches first; widen to the whole category when they run short.
	candidates := inBand
	if len(candidates) < n {
		candidates = append(candidates, outOfBand...)
	}
	if len(candidates) == 0 {
		return o.trendingFallback(ctx, "weighted_personalized", n)
	}
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	return o.serve("weighted_personalized", models.StrategyWeightedSignal, candidates), nil
}

// topWeightedProducts sums interaction weights per product and returns the
// ids of the highest-signal products, ties broken by id for determinism.
func (o *RecommendationOrchestrator) topWeightedProducts(history []models.Interaction) []string {
	scores := make(map[string]float64)
	for i := range history {
		weight, ok := o.cfg.Personalization.Weights[history[i].Type]
		if !ok {
			weight = 1.0
		}
		scores[history[i].ProductID] += weight
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	if len(ids) > o.cfg.Personalization.TopProducts {
		ids = ids[:o.cfg.Personalization.TopProducts]
	}
	return ids
}

// RecentlyViewed replays the actor's view history newest first, deduplicated
// on first occurrence. This is a history view, not a model output, so an
// empty history yields an empty list rather than a fallback.
func (o *RecommendationOrchestrator) RecentlyViewed(ctx context.Context, actor models.Actor, n int) (*models.RecommendationList, error) {
	n = o.count(n, o.cfg.RecentlyViewed.DefaultCount)

	views, err := o.ledger.RecentViews(ctx, actor, o.cfg.RecentlyViewed.MaxEvents)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(views))
	ids := make([]string, 0, n)
	for i := range views {
		if seen[views[i].ProductID] {
			continue
		}
		seen[views[i].ProductID] = true
		ids = append(ids, views[i].ProductID)
		if len(ids) == n {
			break
		}
	}

	products, err := o.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return o.serve("recently_viewed", models.StrategyRecentlyViewed, pickByID(products, ids)), nil
}

// CompleteTheLook pairs the target with the highest-rated products from
// complementary sub-categories of the same category, padding a short page
// from the rest of the category. Without a pairing entry it degrades to
// same-category different-sub-category by rating, then to trending.
func (o *RecommendationOrchestrator) CompleteTheLook(ctx context.Context, productID string, n int) (*models.RecommendationList, error) {
	n = o.count(n, o.cfg.CompleteTheLook.DefaultCount)

	target, err := o.catalog.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	siblings, err := o.catalog.ProductsByCategory(ctx, target.Category)
	if err != nil {
		return nil, err
	}

	if picked := o.complementaryPicks(target, siblings, n); len(picked) > 0 {
		if len(picked) < n {
			picked = padSameCategory(picked, target, siblings, n)
		}
		return o.serve("complete_the_look", models.StrategyComplementary, picked), nil
	}

	if picked := sameCategoryPicks(target, siblings, n); len(picked) > 0 {
		return o.serve("complete_the_look", models.StrategyCategoryRating, picked), nil
	}

	return o.trendingFallback(ctx, "complete_the_look", n)
}

func (o *RecommendationOrchestrator) complementaryPicks(target *models.Product, siblings []models.Product, n int) []models.Product {
	if target.SubCategory == nil {
		return nil
	}
	pairings, ok := o.cfg.CompleteTheLook.Complementary[normalize(target.Category)]
	if !ok {
		return nil
	}
	complements := complementsFor(pairings, normalize(*target.SubCategory))
	if len(complements) == 0 {
		return nil
	}

	ranked := rankedByRating(siblings)
	picked := make([]models.Product, 0, n)
	seen := map[string]bool{target.ID: true}
	for _, complement := range complements {
		if len(picked) == n {
			break
		}
		taken := 0
		for i := range ranked {
			if len(picked) == n || taken == o.cfg.CompleteTheLook.PerSubCategory {
				break
			}
			p := ranked[i]
			if seen[p.ID] || p.SubCategory == nil {
				continue
			}
			// Substring match tolerates compound sub-categories like
			// "shoes & boots".
			if !strings.Contains(normalize(*p.SubCategory), complement) {
				continue
			}
			picked = append(picked, p)
			seen[p.ID] = true
			taken++
		}
	}
	return picked
}

// complementsFor resolves a pairing entry, tolerating singular/plural
// variants of the sub-category ("dress" matches "dresses"). Keys are
// scanned in sorted order so the variant match is deterministic.
func complementsFor(pairings map[string][]string, subCategory string) []string {
	if complements, ok := pairings[subCategory]; ok {
		return complements
	}

	keys := make([]string, 0, len(pairings))
	for k := range pairings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.Contains(k, subCategory) || strings.Contains(subCategory, k) {
			return pairings[k]
		}
	}
	return nil
}

// padSameCategory fills a short complementary page with the highest-rated
// remaining products of the category.
func padSameCategory(picked []models.Product, target *models.Product, siblings []models.Product, n int) []models.Product {
	seen := make(map[string]bool, len(picked)+1)
	seen[target.ID] = true
	for i := range picked {
		seen[picked[i].ID] = true
	}

	for _, p := range rankedByRating(siblings) {
		if len(picked) == n {
			break
		}
		if seen[p.ID] {
			continue
		}
		picked = append(picked, p)
		seen[p.ID] = true
	}
	return picked
}

// sameCategoryPicks is the degraded tier: same category, different
// sub-category, rating order.
func sameCategoryPicks(target *models.Product, siblings []models.Product, n int) []models.Product {
	targetSub := ""
	if target.SubCategory != nil {
		targetSub = normalize(*target.SubCategory)
	}

	var picked []models.Product
	for _, p := range rankedByRating(siblings) {
		if len(picked) == n {
			break
		}
		if p.ID == target.ID {
			continue
		}
		sub := ""
		if p.SubCategory != nil {
			sub = normalize(*p.SubCategory)
		}
		if sub == targetSub {
			continue
		}
		picked = append(picked, p)
	}
	return picked
}

func rankedByRating(products []models.Product) []models.Product {
	ranked := make([]models.Product, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rating > ranked[j].Rating
	})
	return ranked
}

// interactionProfile loads the actor's windowed history and resolves the
// interacted products against the full catalog snapshot.
func (o *RecommendationOrchestrator) interactionProfile(ctx context.Context, actor models.Actor) ([]models.Product, []models.Product, error) {
	history, err := o.ledger.RecentInteractions(ctx, actor,
		o.window(o.cfg.Personalization.WindowDays), o.cfg.Personalization.MaxEvents)
	if err != nil {
		return nil, nil, err
	}
	if len(history) == 0 {
		return nil, nil, nil
	}

	products, err := o.catalog.AllProducts(ctx)
	if err != nil {
		return nil, nil, err
	}

	byID := indexByID(products)
	seen := make(map[string]bool, len(history))
	var interacted []models.Product
	for i := range history {
		id := history[i].ProductID
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := byID[id]; ok {
			interacted = append(interacted, p)
		}
	}

	return interacted, products, nil
}

func (o *RecommendationOrchestrator) trendingFallback(ctx context.Context, operation string, n int) (*models.RecommendationList, error) {
	o.logger.WithField("operation", operation).Debug("Falling back to trending")
	list, err := o.Trending(ctx, n)
	if err != nil {
		return nil, err
	}
	recommendationsServed.WithLabelValues(operation, models.StrategyTrending).Inc()
	return list, nil
}

func (o *RecommendationOrchestrator) serve(operation, strategy string, products []models.Product) *models.RecommendationList {
	recommendationsServed.WithLabelValues(operation, strategy).Inc()
	return &models.RecommendationList{
		Products:    models.Summaries(products),
		Strategy:    strategy,
		GeneratedAt: time.Now().UTC(),
	}
}

func (o *RecommendationOrchestrator) cacheGet(ctx context.Context, key string) *models.RecommendationList {
	if o.redis == nil {
		return nil
	}
	payload, err := o.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil // miss and outage look the same
	}
	var list models.RecommendationList
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil
	}
	return &list
}

func (o *RecommendationOrchestrator) cacheSet(ctx context.Context, key string, list *models.RecommendationList) {
	if o.redis == nil {
		return
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := o.redis.Set(ctx, key, payload, o.cfg.Trending.CacheTTL).Err(); err != nil {
		o.logger.WithError(err).WithField("key", key).Debug("Failed to cache recommendations")
	}
}

func (o *RecommendationOrchestrator) count(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

func (o *RecommendationOrchestrator) window(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

func indexByID(products []models.Product) map[string]models.Product {
	byID := make(map[string]models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = products[i]
	}
	return byID
}

// pickByID resolves ids against products preserving id order; unknown ids
// are skipped.
func pickByID(products []models.Product, ids []string) []models.Product {
	byID := indexByID(products)
	picked := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			picked = append(picked, p)
		}
	}
	return picked
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
