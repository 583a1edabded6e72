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

	"github.com/samirrijal/wayfinder/internal/adapters/geocode"
	"github.com/samirrijal/wayfinder/internal/adapters/http"
	"github.com/samirrijal/wayfinder/internal/adapters/iplocate"
	natsadapter "github.com/samirrijal/wayfinder/internal/adapters/nats"
	"github.com/samirrijal/wayfinder/internal/adapters/routing"
	"github.com/samirrijal/wayfinder/internal/adapters/valkey"
	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
	"github.com/samirrijal/wayfinder/internal/pkg/config"
	"github.com/samirrijal/wayfinder/internal/pkg/logging"
	"github.com/samirrijal/wayfinder/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("wayfinder-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("wayfinder-api", logLevel, "json")

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

	// NATS carries the tracker feed, sensor fix requests, and voice output.
	nc, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Drain()

	// Cache (optional)
	var cache *valkey.Cache
	if cfg.Valkey.Enabled {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}

	// Outbound adapters
	publisher := natsadapter.NewPublisher(nc)
	speaker := natsadapter.NewSpeaker(nc)
	sensor := natsadapter.NewSensorClient(nc, cfg.NATS.DeviceID)
	geocoder := geocode.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)
	locator := iplocate.New(cfg.IPLocate.BaseURL)

	var backends []ports.RoutingBackend
	if cfg.Routing.OSRMBaseURL != "" {
		backends = append(backends, routing.NewOSRM(cfg.Routing.OSRMBaseURL))
	}
	if cfg.Routing.GraphHopperBaseURL != "" {
		backends = append(backends, routing.NewGraphHopper(cfg.Routing.GraphHopperBaseURL, cfg.Routing.GraphHopperAPIKey))
	}

	// Use cases
	clock := usecases.SystemClock()
	locationSvc := usecases.NewLocationService(sensor, locator, geocoder, publisher, cacheSvc, clock, usecases.LocationConfig{
		MaxAttempts:        cfg.Location.MaxAttempts,
		FixTimeout:         cfg.Location.FixTimeout(),
		GoodAccuracyMeters: cfg.Location.GoodAccuracyMeters,
		RetryAfterFix:      cfg.Location.RetryAfterFix(),
		RetryAfterError:    cfg.Location.RetryAfterError(),
	})
	routeSvc := usecases.NewRouteService(geocoder, backends, cacheSvc)
	navSvc := usecases.NewNavigationService(speaker, publisher, clock, usecases.NavigationConfig{
		ReachedThresholdKm: cfg.Navigation.ReachedThresholdKm,
		DirectionCooldown:  cfg.Navigation.DirectionCooldown(),
		NearDistanceKm:     cfg.Navigation.NearDistanceKm,
		NearInterval:       cfg.Navigation.NearInterval(),
		FarInterval:        cfg.Navigation.FarInterval(),
	})

	// Tracker feed: every device position becomes the current location and
	// advances navigation.
	subscriber := natsadapter.NewSubscriber(nc, cfg.NATS.DeviceID)
	defer subscriber.Close()
	err = subscriber.SubscribePositions(ctx, func(ctx context.Context, sample domain.LocationSample) error {
		locationSvc.Update(sample)
		navSvc.OnPositionUpdate(ctx, sample)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe positions: %v", err)
	}

	deps := &http.Dependencies{
		Location:   locationSvc,
		Routes:     routeSvc,
		Navigation: navSvc,
		NATS:       nc,
		Cache:      cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Wayfinder API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps, cfg.NATS.DeviceID)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "device", cfg.NATS.DeviceID)
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
