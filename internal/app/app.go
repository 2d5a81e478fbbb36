package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/config"
	"github.com/sartoria/vetrina/internal/database"
	"github.com/sartoria/vetrina/internal/handlers"
	"github.com/sartoria/vetrina/internal/middleware"
	"github.com/sartoria/vetrina/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	services, err := services.New(cfg, app.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = services

	app.handlers = handlers.New(app.logger, services)

	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if err := a.services.EventBus.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing event bus")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestLogger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))
	router.Use(middleware.Metrics())

	// Health check endpoint (no auth required)
	router.GET("/health", a.handlers.Health.Check)

	// Prometheus metrics endpoint (no auth required)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		// Recommendations work for anonymous sessions; a Bearer token, when
		// present, resolves the authenticated actor.
		api.Use(middleware.OptionalAuth(&a.config.Auth, a.logger))
		api.Use(middleware.RateLimit(&a.config.Auth.RateLimit, a.db.Redis, a.logger))

		recommendations := api.Group("/recommendations")
		{
			recommendations.POST("/track", a.handlers.Interaction.Track)
			recommendations.GET("/for-product/:productId", a.handlers.Recommendation.SimilarToProduct)
			recommendations.GET("/trending", a.handlers.Recommendation.Trending)
			recommendations.GET("/personalized", a.handlers.Recommendation.Personalized)
			recommendations.GET("/personalized-enhanced", a.handlers.Recommendation.WeightedPersonalized)
			recommendations.GET("/recently-viewed", a.handlers.Recommendation.RecentlyViewed)
			recommendations.GET("/complete-look/:productId", a.handlers.Recommendation.CompleteTheLook)
		}
	}

	a.router = router
}
