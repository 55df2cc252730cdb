package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-core/internal/api/http"
	"github.com/i474232898/weather-core/internal/catalog"
	"github.com/i474232898/weather-core/internal/config"
	"github.com/i474232898/weather-core/internal/device"
	"github.com/i474232898/weather-core/internal/log"
	"github.com/i474232898/weather-core/internal/metrics"
	"github.com/i474232898/weather-core/internal/scheduler"
	"github.com/i474232898/weather-core/internal/store"
	"github.com/i474232898/weather-core/internal/weather"
	"github.com/i474232898/weather-core/internal/weather/providers"
)

func main() {
	// Console logger until the configuration says otherwise.
	if err := log.Init(false, ""); err != nil {
		panic(err)
	}

	// Load configuration (also reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := log.Init(cfg.LogDebug, cfg.LogFile); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer log.Sync()

	// Snapshot persistence.
	backend, closeBackend, err := store.OpenBackend(cfg.StoreBackend, cfg.StorePath)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer func() {
		if err := closeBackend(); err != nil {
			log.Errorw("error closing store", "error", err)
		}
	}()
	codec, err := store.CodecByName(cfg.StoreCodec)
	if err != nil {
		log.Fatalf("failed to select codec: %v", err)
	}
	gateway := store.NewGateway[weather.Snapshot](backend, codec)

	// Device position and connectivity.
	locator := device.NewStaticLocator(initialPosition(cfg), cfg.LocationPermission)
	reachability := device.NewNetProbe(cfg.ReachabilityHost, 3*time.Second, 30*time.Second)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	client := providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherBaseURL)

	manager, err := weather.NewManager(weather.Options{
		Fetcher:      client,
		Store:        gateway,
		Locator:      locator,
		Reachability: reachability,
		APIKey:       cfg.OpenWeatherAPIKey,
		SnapshotName: cfg.SnapshotName,
		FetchTimeout: 2 * cfg.HTTPTimeout,
	})
	if err != nil {
		log.Fatalf("failed to create weather manager: %v", err)
	}
	manager.Start()
	defer manager.Close()

	locator.OnPermissionChange(manager.PermissionChanged)
	manager.Subscribe(func(e weather.Event) {
		log.Infow("snapshot changed", "reason", e.Reason, "at", e.At)
	})

	cat, err := catalog.Bundled()
	if err != nil {
		log.Fatalf("failed to load city catalog: %v", err)
	}

	// Scheduler that periodically refreshes the snapshot.
	sched := scheduler.New(cfg.FetchInterval, manager)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-core",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// POST /refresh waits for both provider queries
		WriteTimeout: 2*cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"service":     "weather-core",
			"lastRefresh": manager.LastRefresh(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Manager:    manager,
		Catalog:    cat,
		Locator:    locator,
		StaleAfter: cfg.StaleAfter,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()
	log.Infow("weather-core listening", "port", cfg.Port, "store", cfg.StoreBackend, "codec", cfg.StoreCodec)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
}

// initialPosition uses explicit coordinates, then the geocoded city, then nothing.
func initialPosition(cfg *config.AppConfig) *device.Coordinate {
	if cfg.LocationLat != nil && cfg.LocationLon != nil {
		return &device.Coordinate{Lat: *cfg.LocationLat, Lon: *cfg.LocationLon}
	}
	if cfg.LocationCity == "" {
		return nil
	}
	pos, err := device.GeocodeCity(cfg.GeocoderAPIKey, cfg.LocationCity, cfg.LocationCountry)
	if err != nil {
		log.Warnw("could not geocode configured city; nearby weather unavailable until a position is set",
			"city", cfg.LocationCity, "country", cfg.LocationCountry, "error", err)
		return nil
	}
	return &pos
}
