package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dostavka/selection-service/config"
	"github.com/dostavka/selection-service/internal/handlers"
	"github.com/dostavka/selection-service/internal/middleware"
	"github.com/dostavka/selection-service/internal/selection"
	"github.com/dostavka/selection-service/internal/telemetry"
	"github.com/dostavka/selection-service/internal/upstream"
	"github.com/dostavka/selection-service/internal/upstream/ratelimit"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)
	log.Logger = *logger

	logger.Info().Msg("Starting selection service")

	ctx := context.Background()
	cleanup, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	httpClient := upstream.NewClient(ratelimit.Config{
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		MaxRetries:        cfg.Upstream.MaxRetries,
		InitialBackoffMs:  cfg.Upstream.InitialBackoffMs,
		MaxBackoffMs:      cfg.Upstream.MaxBackoffMs,
	}, cfg.Upstream.Timeout)

	searchClient := upstream.NewSearchClient(httpClient, cfg.Upstream.SearchURL)
	pricingClient := upstream.NewPricingClient(httpClient, cfg.Upstream.PriceURL)

	selCfg := selectionConfig(cfg.Selection)
	service, err := selection.NewService(selCfg, searchClient, pricingClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build selection pipeline")
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimitMiddleware())
	setupMiddleware(router, logger)

	availability := handlers.NewAvailabilityHandler(service)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/partial_availability", availability.PartialAvailability)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func selectionConfig(cfg config.SelectionConfig) *selection.Config {
	out := selection.DefaultConfig()
	if cfg.ClosestCount > 0 {
		out.ClosestCount = cfg.ClosestCount
	}
	if cfg.CheapestCount > 0 {
		out.CheapestCount = cfg.CheapestCount
	}
	if cfg.ClosingSoonWindow > 0 {
		out.ClosingSoonWindow = cfg.ClosingSoonWindow
	}
	if cfg.DiscountMargin > 0 {
		out.DiscountMargin = decimal.NewFromFloat(cfg.DiscountMargin)
	}
	if cfg.BusinessTimezone != "" {
		out.BusinessTimezone = cfg.BusinessTimezone
	}
	if cfg.MaxSkus > 0 {
		out.MaxSKUs = cfg.MaxSkus
	}
	out.StrictPricing = cfg.StrictPricing
	return out
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "selection-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Msg("HTTP request")
	})
}
