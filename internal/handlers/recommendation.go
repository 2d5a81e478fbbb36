package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/middleware"
	"github.com/sartoria/vetrina/internal/services"
	"github.com/sartoria/vetrina/pkg/models"
)

type RecommendationHandler struct {
	orchestrator services.RecommendationOrchestratorInterface
	logger       *logrus.Logger
}

func NewRecommendationHandler(
	orchestrator services.RecommendationOrchestratorInterface,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// SimilarToProduct serves products resembling the one identified in the
// path.
func (h *RecommendationHandler) SimilarToProduct(c *gin.Context) {
	productID := c.Param("productId")

	list, err := h.orchestrator.SimilarToProduct(c.Request.Context(), productID, parseCount(c))
	h.respond(c, list, err)
}

func (h *RecommendationHandler) Trending(c *gin.Context) {
	list, err := h.orchestrator.Trending(c.Request.Context(), parseCount(c))
	h.respond(c, list, err)
}

func (h *RecommendationHandler) Personalized(c *gin.Context) {
	list, err := h.orchestrator.Personalized(c.Request.Context(), h.actor(c), parseCount(c))
	h.respond(c, list, err)
}

func (h *RecommendationHandler) WeightedPersonalized(c *gin.Context) {
	list, err := h.orchestrator.WeightedPersonalized(c.Request.Context(), h.actor(c), parseCount(c))
	h.respond(c, list, err)
}

func (h *RecommendationHandler) RecentlyViewed(c *gin.Context) {
	list, err := h.orchestrator.RecentlyViewed(c.Request.Context(), h.actor(c), parseCount(c))
	h.respond(c, list, err)
}

func (h *RecommendationHandler) CompleteTheLook(c *gin.Context) {
	productID := c.Param("productId")

	list, err := h.orchestrator.CompleteTheLook(c.Request.Context(), productID, parseCount(c))
	h.respond(c, list, err)
}

func (h *RecommendationHandler) actor(c *gin.Context) models.Actor {
	var sessionID *string
	if sid := c.Query("session_id"); sid != "" {
		sessionID = &sid
	}
	return middleware.ActorFromContext(c, sessionID)
}

func (h *RecommendationHandler) respond(c *gin.Context, list *models.RecommendationList, err error) {
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
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": gin.H{
					"code":    "REQUEST_TIMEOUT",
					"message": "Request timed out",
				},
			})
			return
		}
		h.logger.WithError(err).WithField("path", c.FullPath()).
			Error("Failed to generate recommendations")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "RECOMMENDATION_GENERATION_FAILED",
				"message": "Failed to generate recommendations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, list)
}

// parseCount reads the count query parameter; zero means "use the
// operation default" and values above 100 are clamped out.
func parseCount(c *gin.Context) int {
	countStr := c.Query("count")
	if countStr == "" {
		return 0
	}
	count, err := strconv.Atoi(countStr)
	if err != nil || count <= 0 || count > 100 {
		return 0
	}
	return count
}
