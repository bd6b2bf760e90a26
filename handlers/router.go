package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/middleware"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

type Deps struct {
	Predictions *services.PredictionService
	Logs        *services.PredictionLogger
	Tracker     *services.Tracker
	Cache       *services.CacheService
	Auth        *services.AuthService
	CORS        config.CORSConfig
	Log         *logger.Logger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Auth == nil {
		d.Auth = services.NewAuthService(config.JWTConfig{})
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.SetupCORS(d.CORS))

	modelH := NewModelHandler(d.Predictions.Models())
	predH := NewPredictionHandler(d.Predictions, d.Logs)

	router.GET("/health", modelH.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/predict", predH.Predict)
	router.GET("/model/schema", modelH.GetSchema)

	if d.Logs != nil {
		router.GET("/predictions", middleware.RequireScope(d.Auth, services.ScopeRead), predH.ListPredictions)
	}
	if d.Tracker != nil {
		runsH := NewRunsHandler(d.Tracker)
		admin := router.Group("/runs", middleware.RequireScope(d.Auth, services.ScopeAdmin))
		admin.GET("", runsH.ListRuns)
		admin.GET("/:id", runsH.GetRun)
	}
	if d.Cache != nil {
		router.GET("/ws/predictions", NewLiveFeed(d.Cache, d.Auth, d.Log).Serve)
	}
	return router
}
