package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/services"
)

type HealthHandler struct {
	logger *logrus.Logger
	health *services.HealthService
}

func NewHealthHandler(logger *logrus.Logger, health *services.HealthService) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		health: health,
	}
}

// Check reports dependency health. A Redis outage only costs the trending
// cache and rate limiting, so degraded still answers 200 and load balancers
// keep routing; only a PostgreSQL failure takes the service out of rotation.
func (h *HealthHandler) Check(c *gin.Context) {
	status := h.health.CheckHealth()

	code := http.StatusOK
	if status.Status == services.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, status)
}
