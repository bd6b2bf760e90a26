package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/handlers"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

func main() {
	issueToken := flag.String("issue-token", "", "print a token for the given operator and exit")
	tokenScope := flag.String("scope", services.ScopeAdmin, "scope of the issued token: admin or read")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	exitCode := 0
	defer func() {
		log.Sync()
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	authService := services.NewAuthService(cfg.JWT)
	if *issueToken != "" {
		token, err := authService.IssueToken(*issueToken, *tokenScope)
		if err != nil {
			log.Error("failed to issue token", "error", err)
			exitCode = 1
			return
		}
		fmt.Println(token)
		return
	}

	db, err := services.OpenDatabase(cfg.Database)
	if err != nil {
		log.Error("failed to open tracking database", "driver", cfg.Database.Driver, "error", err)
		exitCode = 1
		return
	}

	cache, err := services.NewCacheService(cfg.Redis, log)
	if err != nil {
		log.Warn("continuing without redis", "error", err)
	}
	defer cache.Close()

	models := services.NewModelService(cfg.Model, log)
	if _, err := models.EnsureLoaded(); err != nil {
		// Not fatal: /predict answers 503 until a model is trained.
		log.Warn("no model available yet", "path", cfg.Model.ArtifactPath, "error", err)
	}
	logs := services.NewPredictionLogger(db)

	if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Deps{
		Predictions: services.NewPredictionService(models, cache, logs, log),
		Logs:        logs,
		Tracker:     services.NewTracker(db, cfg.Tracking.Experiment),
		Cache:       cache,
		Auth:        authService,
		CORS:        cfg.CORS,
		Log:         log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", "addr", server.Addr, "auth", authService.Enabled(), "redis", cache.Available())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "error", err)
		exitCode = 1
		return
	}
	log.Info("server stopped")
}
