package services

import (
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/config"
	"github.com/sartoria/vetrina/internal/database"
	"github.com/sartoria/vetrina/internal/messaging"
)

type Services struct {
	Health                     *HealthService
	EventBus                   *messaging.EventBus
	Catalog                    *CatalogService
	Features                   *FeatureService
	Similarity                 SimilarityEngine
	InteractionLedger          *InteractionLedgerService
	RecommendationOrchestrator *RecommendationOrchestrator
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	healthService := NewHealthService(cfg, logger, db)

	eventBus, err := messaging.NewEventBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	catalogService := NewCatalogService(db.PG, logger)
	featureService := NewFeatureService(logger)
	similarityEngine := NewSimilarityEngine(&cfg.Recommendation.Similarity, featureService, logger)
	ledgerService := NewInteractionLedgerService(db.PG, eventBus, logger)

	orchestrator := NewRecommendationOrchestrator(
		catalogService, ledgerService, similarityEngine,
		db.Redis, &cfg.Recommendation, logger,
	)

	return &Services{
		Health:                     healthService,
		EventBus:                   eventBus,
		Catalog:                    catalogService,
		Features:                   featureService,
		Similarity:                 similarityEngine,
		InteractionLedger:          ledgerService,
		RecommendationOrchestrator: orchestrator,
	}, nil
}
