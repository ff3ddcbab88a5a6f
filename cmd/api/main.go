package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nvalera/contourcad/internal/adapters/elevation"
	"github.com/nvalera/contourcad/internal/adapters/http"
	natsadapter "github.com/nvalera/contourcad/internal/adapters/nats"
	"github.com/nvalera/contourcad/internal/adapters/postgres"
	"github.com/nvalera/contourcad/internal/adapters/storage"
	"github.com/nvalera/contourcad/internal/adapters/valkey"
	"github.com/nvalera/contourcad/internal/core/ports"
	"github.com/nvalera/contourcad/internal/core/usecases"
	"github.com/nvalera/contourcad/internal/pkg/config"
	"github.com/nvalera/contourcad/internal/pkg/geospatial"
	"github.com/nvalera/contourcad/internal/pkg/logging"
	"github.com/nvalera/contourcad/internal/pkg/metrics"
	"github.com/nvalera/contourcad/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("contourcad-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache (optional: pipeline degrades to uncached sampling)
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS (optional: job events are best-effort)
	var events ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		events = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Projection: fixed UTM zone from config
	projector, err := geospatial.NewUTM(cfg.Pipeline.UTMZone, cfg.Pipeline.UTMNorthern)
	if err != nil {
		log.Fatalf("projection: %v", err)
	}

	// Adapters
	elevClient := elevation.NewClient(cfg.Elevation.BaseURL, cfg.Elevation.APIKey, cfg.Elevation.ChunkSize)
	sink := storage.NewSupabaseSink(cfg.Storage.BaseURL, cfg.Storage.APIKey, cfg.Storage.Bucket)
	jobRepo := postgres.NewJobRepo(db)

	// Periodically export pool stats to Prometheus
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	}()

	// Use cases
	pipelineSvc := usecases.NewPipelineService(elevClient, projector, cacheSvc, jobRepo, events, cfg.Valkey.CacheTTL)
	jobSvc := usecases.NewJobService(jobRepo, cacheSvc)

	deps := &http.Dependencies{
		Pipeline: pipelineSvc,
		Jobs:     jobSvc,
		Storage:  sink,
		Limits:   cfg.Pipeline,
		NATS:     natsConn,
		DB:       db,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // polygons can carry many vertices
		AppName:      "ContourCAD API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
