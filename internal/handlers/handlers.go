package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Interaction    *InteractionHandler
	Recommendation *RecommendationHandler
}

func New(logger *logrus.Logger, services *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Interaction:    NewInteractionHandler(services.RecommendationOrchestrator, logger),
		Recommendation: NewRecommendationHandler(services.RecommendationOrchestrator, logger),
	}
}
