package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/middleware"
	"github.com/sartoria/vetrina/internal/services"
	"github.com/sartoria/vetrina/pkg/models"
)

type InteractionHandler struct {
	orchestrator services.RecommendationOrchestratorInterface
	logger       *logrus.Logger
	validator    *validator.Validate
}

func NewInteractionHandler(
	orchestrator services.RecommendationOrchestratorInterface,
	logger *logrus.Logger,
) *InteractionHandler {
	return &InteractionHandler{
		orchestrator: orchestrator,
		logger:       logger,
		validator:    validator.New(),
	}
}

// Track records one interaction event against a catalog product.
func (h *InteractionHandler) Track(c *gin.Context) {
	var req models.TrackInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "Invalid request body format",
			},
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	actor := middleware.ActorFromContext(c, req.SessionID)

	interaction, err := h.orchestrator.TrackInteraction(c.Request.Context(), actor, &req)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "PRODUCT_NOT_FOUND",
					"message": "Product not found",
				},
			})
			return
		}
		h.logger.WithError(err).WithField("product_id", req.ProductID).
			Error("Failed to track interaction")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERACTION_TRACKING_FAILED",
				"message": "Failed to track interaction",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, models.TrackInteractionResponse{
		Success:     true,
		Message:     "Interaction tracked",
		Interaction: interaction,
	})
}
