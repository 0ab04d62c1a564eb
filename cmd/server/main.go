package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pcsite/backend/config"
	httpDelivery "github.com/pcsite/backend/internal/delivery/http"
	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/infrastructure/cache"
	"github.com/pcsite/backend/internal/infrastructure/crawler"
	"github.com/pcsite/backend/internal/infrastructure/reviewer"
	"github.com/pcsite/backend/internal/infrastructure/store"
	"github.com/pcsite/backend/internal/logging"
	"github.com/pcsite/backend/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	if err := run(cfg, &logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	format := cfg.Log.Format
	if format == "" {
		format = "json"
		if cfg.Server.Environment == "development" {
			format = "console"
		}
	}
	return logging.New(logging.Config{Level: cfg.Log.Level, Format: format, Service: "pcsite-backend"})
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("store", cfg.Store.Driver).
		Str("cache", cfg.Cache.Type).
		Msg("starting pcsite backend v1.0.0")

	// Initialize infrastructure dependencies
	catalog, err := store.Open(ctx, store.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN})
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	defer catalog.Close()

	reviewCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer reviewCache.Close()

	shopSources, err := listingSources(cfg.Crawler.Sources)
	if err != nil {
		return err
	}
	chartSources, err := benchmarkSources(cfg.Benchmarks.Sources)
	if err != nil {
		return err
	}
	crawlCfg := crawler.Config{
		UserAgent:         cfg.Crawler.UserAgent,
		Timeout:           cfg.Crawler.Timeout,
		MaxPages:          cfg.Crawler.MaxPages,
		RequestsPerSecond: cfg.RateLimit.Crawl,
	}
	listings := crawler.NewListingFetcher(crawlCfg, shopSources)
	benchmarks := crawler.NewBenchmarkFetcher(crawlCfg, chartSources)

	// Initialize usecase layer
	location, err := cfg.Sync.Location()
	if err != nil {
		return err
	}
	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		SimilarityThreshold: cfg.Matching.SimilarityThreshold,
		KeywordMinLength:    cfg.Matching.KeywordMinLength,
		KeyGuard:            cfg.Matching.StrictKeys,
		EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
	})
	syncService := usecase.NewCatalogSyncService(catalog, matcher, usecase.NewPriceReconciler(location), usecase.SyncConfig{
		MinListingsForDeletion: cfg.Sync.MinListingsForDeletion,
	})

	floors, err := usecase.NewScoreFloors(scoreFloorRules(cfg.Benchmarks.ScoreFloors))
	if err != nil {
		return fmt.Errorf("score floors: %w", err)
	}
	attacher := usecase.NewBenchmarkService(catalog, matcher, floors)

	var enrichment *usecase.EnrichmentService
	if cfg.Enrichment.APIKey != "" {
		generator, err := reviewer.NewClient(ctx, reviewer.Config{
			APIKey: cfg.Enrichment.APIKey,
			Model:  cfg.Enrichment.Model,
			Retry: reviewer.RetryConfig{
				MaxAttempts: cfg.Enrichment.MaxAttempts,
				BaseBackoff: cfg.Enrichment.BaseBackoff,
			},
		})
		if err != nil {
			return fmt.Errorf("review generator: %w", err)
		}
		enrichment = usecase.NewEnrichmentService(catalog, generator, reviewCache, usecase.EnrichmentConfig{
			Delay:    cfg.Enrichment.Delay,
			CacheTTL: cfg.Cache.TTL,
		})
	} else {
		logger.Warn().Msg("enrichment api key not set; review generation disabled")
	}

	pipeline := usecase.NewPipelineService(listings, benchmarks, catalog, syncService, attacher, enrichment)

	// Create HTTP handler with dependencies
	tasks := httpDelivery.NewTaskManager(ctx)
	handler := httpDelivery.NewHandler(pipeline, catalog, tasks)
	router := httpDelivery.SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if err := tasks.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("background tasks did not stop in time")
	}
	logger.Info().Msg("server stopped")
	return nil
}

type closableCache interface {
	domain.CacheRepository
	io.Closer
}

func newCache(ctx context.Context, cfg *config.Config) (closableCache, error) {
	if cfg.Cache.Type == "redis" {
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.Cache.RedisURL})
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

func listingSources(in map[string]config.SourceConfig) (map[domain.Category]crawler.ListingSource, error) {
	out := make(map[domain.Category]crawler.ListingSource, len(in))
	for key, src := range in {
		category, err := domain.ParseCategory(key)
		if err != nil {
			return nil, fmt.Errorf("crawler source: %w", err)
		}
		out[category] = crawler.ListingSource{
			URL: src.URL,
			Selectors: crawler.ListingSelectors{
				Item:      src.Selectors.Item,
				Name:      src.Selectors.Name,
				Price:     src.Selectors.Price,
				Spec:      src.Selectors.Spec,
				Image:     src.Selectors.Image,
				ImageAttr: src.Selectors.ImageAttr,
			},
		}
	}
	return out, nil
}

func benchmarkSources(in map[string]config.SourceConfig) (map[domain.Category]crawler.BenchmarkSource, error) {
	out := make(map[domain.Category]crawler.BenchmarkSource, len(in))
	for key, src := range in {
		category, err := domain.ParseCategory(key)
		if err != nil {
			return nil, fmt.Errorf("benchmark source: %w", err)
		}
		out[category] = crawler.BenchmarkSource{
			URL: src.URL,
			Selectors: crawler.BenchmarkSelectors{
				Row:   src.Selectors.Row,
				Name:  src.Selectors.Name,
				Score: src.Selectors.Score,
			},
		}
	}
	return out, nil
}

func scoreFloorRules(in []config.ScoreFloorConfig) []usecase.ScoreFloorRule {
	if len(in) == 0 {
		return usecase.DefaultScoreFloorRules()
	}
	rules := make([]usecase.ScoreFloorRule, 0, len(in))
	for _, r := range in {
		rules = append(rules, usecase.ScoreFloorRule{
			Category: domain.Category(r.Category),
			Pattern:  r.Pattern,
			MinScore: r.MinScore,
		})
	}
	return rules
}
