package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"go-disaster-watch/internal/analysis"
	"go-disaster-watch/internal/api"
	"go-disaster-watch/internal/cache"
	"go-disaster-watch/internal/cluster"
	"go-disaster-watch/internal/config"
	"go-disaster-watch/internal/dispatch"
	"go-disaster-watch/internal/geofence"
	"go-disaster-watch/internal/graph"
	"go-disaster-watch/internal/logging"
	"go-disaster-watch/internal/monitor"
	"go-disaster-watch/internal/repository"
	"go-disaster-watch/internal/stats"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	analyzer, err := analysis.NewOpenAIAnalyzer(analysis.Config{
		APIKey:  cfg.Analysis.APIKey,
		BaseURL: cfg.Analysis.BaseURL,
		Model:   cfg.Analysis.Model,
		Timeout: cfg.Analysis.Timeout,
	})
	if err != nil {
		logging.Fatalf("Failed to initialize analyzer: %v", err)
	}

	store := cache.NewMemory(time.Hour, 10*time.Minute)
	relations := graph.NewMemory()
	engine := cluster.NewEngine(db, store)
	statsGen := stats.NewGenerator(db, store)
	zones := geofence.NewRegistry()

	broadcaster := dispatch.NewBroadcaster()
	hub := dispatch.NewHub(broadcaster)
	notifier := dispatch.NewNotifier(broadcaster, zones)

	mon := monitor.New(db, analyzer, relations, engine, statsGen, broadcaster, notifier, monitor.Config{
		Window:          cfg.Monitor.Window,
		FullWindow:      cfg.Monitor.FullWindow,
		AnalysisTimeout: cfg.Analysis.Timeout,
		Concurrency:     cfg.Monitor.Concurrency,
		RelatedLimit:    5,
	})
	if err := mon.Start(ctx); err != nil {
		logging.Fatalf("Failed to start monitor: %v", err)
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(db, relations, engine, statsGen, hub, zones)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mon.Stop()
	broadcaster.Close() // Close all streams gracefully

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
