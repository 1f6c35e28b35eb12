package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agriMandi/app/echo-server/router"
	"agriMandi/business/allocation"
	"agriMandi/business/listing"
	"agriMandi/business/matching"
	"agriMandi/business/partner"
	"agriMandi/business/risk"
	"agriMandi/internal/middleware"
	psqlRepo "agriMandi/internal/repository/postgres"
	redisRepo "agriMandi/internal/repository/redis"
	"agriMandi/internal/rest"
	"agriMandi/pkg/config"
	"agriMandi/pkg/database"
	"agriMandi/pkg/logger"
	"agriMandi/pkg/metrics"
	"agriMandi/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting agriMandi", "version", cfg.App.Version)

	utils.InitJWT(cfg.JWT.SecretKey)
	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Redis backs the dedup window across restarts; matching still works
	// without it.
	var dedupBackstop matching.DedupBackstop
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, dedup runs in-memory only", "error", err)
	} else {
		dedupBackstop = redisRepo.NewDedupRepository(redisClient)
		defer database.CloseRedisClient(redisClient)
	}

	// Init repo
	partnerRepo := psqlRepo.NewPartnerRepository(db)
	positionRepo := psqlRepo.NewPositionRepository(db)
	requirementRepo := psqlRepo.NewRequirementRepository(db)
	availabilityRepo := psqlRepo.NewAvailabilityRepository(db)
	allocationRepo := psqlRepo.NewAllocationRepository(db)
	matchingConfigRepo := psqlRepo.NewMatchingConfigRepository(db)
	auditRepo := psqlRepo.NewMatchEventRepository(db)

	// Per-commodity weights are loaded once at startup; a malformed row is a
	// boot failure, not a silent fallback.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	configStore, err := matching.LoadConfigStore(loadCtx, matchingConfigRepo)
	loadCancel()
	if err != nil {
		logger.Fatal("Failed to load matching configurations", "error", err)
	}

	// Init service
	bus := matching.NewInProcessBus()
	detector := matching.NewDuplicateDetector(cfg.Matching.DedupWindow, dedupBackstop)

	riskService := risk.NewRiskService(partnerRepo, positionRepo, risk.Config{
		CombineRule:   cfg.Risk.CombineRule,
		LookupTimeout: cfg.Risk.LookupTimeout,
	})

	matchingCfg := matching.Config{
		WarnPenalty:      cfg.Matching.WarnPenalty,
		AIBoost:          cfg.Matching.AIBoost,
		MaxDistanceKm:    cfg.Matching.MaxDistanceKm,
		AllowCrossRegion: cfg.Matching.AllowCrossRegion,
		MaxResults:       cfg.Matching.MaxResults,
		DedupWindow:      cfg.Matching.DedupWindow,
		Workers:          cfg.Matching.Workers,
		QueueCapacity:    cfg.Matching.QueueCapacity,
		MaxAttempts:      cfg.Matching.MaxAttempts,
		RetryBackoff:     cfg.Matching.RetryBackoff,
		SweepInterval:    cfg.Matching.SweepInterval,
		SweepLookback:    cfg.Matching.SweepLookback,
	}

	matchService := matching.NewMatchService(
		requirementRepo,
		availabilityRepo,
		riskService,
		configStore,
		detector,
		bus,
		auditRepo,
		matchingCfg,
	)

	listingService := listing.NewListingService(requirementRepo, availabilityRepo, partnerRepo, bus)
	partnerService := partner.NewPartnerService(partnerRepo)
	allocationService := allocation.NewAllocationService(
		availabilityRepo,
		allocationRepo,
		bus,
		auditRepo,
		allocation.Config{
			ReservationTTL: cfg.Allocation.ReservationTTL,
			ExpirySweep:    cfg.Allocation.ExpirySweep,
		},
	)

	// Init orchestrator
	orchestrator := matching.NewOrchestrator(matchService, matchingCfg)
	orchestrator.Bind(bus)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	orchestrator.Start(workerCtx)
	go allocationService.StartExpirySweep(workerCtx)

	// Init handler
	partnerHandler := rest.NewPartnerHandler(partnerService)
	requirementHandler := rest.NewRequirementHandler(listingService)
	availabilityHandler := rest.NewAvailabilityHandler(listingService)
	matchHandler := rest.NewMatchHandler(matchService)
	allocationHandler := rest.NewAllocationHandler(allocationService)
	riskHandler := rest.NewRiskHandler(riskService, bus)
	matchingAdminHandler := rest.NewMatchingAdminHandler(configStore, matchingConfigRepo)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupPartnerRoutes(api, partnerHandler)
	router.SetupRequirementRoutes(api, requirementHandler, matchHandler)
	router.SetupAvailabilityRoutes(api, availabilityHandler, matchHandler)
	router.SetupAllocationRoutes(api, allocationHandler)
	router.SetupRiskRoutes(api, riskHandler)
	router.SetupMatchingAdminRoutes(api, matchingAdminHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// Close the match queue and wait for in-flight jobs; anything still
	// enqueued is dropped and recovered by the next instance's safety sweep.
	orchestrator.Shutdown()
	workerCancel()

	logger.Info("Server stopped")
}
