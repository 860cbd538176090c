package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/config"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/helpers"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/internal/scraper"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/logger"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/services/cache"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/services/publisher"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("regions", len(cfg.Regions)).
		Strs("cities", cfg.Cities()).
		Dur("min_delay", cfg.MinDelay).
		Dur("max_delay", cfg.MaxDelay).
		Msg("Starting crawl")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	parser, err := scraper.NewListingParser(cfg.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create listing parser")
	}

	regionScraper := scraper.NewRegionScraper(
		parser,
		helpers.FetchPage,
		services.Cache,
		cfg.MinDelay,
		cfg.MaxDelay,
		cfg.BlockTime,
	)
	enricher := scraper.NewDetailEnricher(helpers.FetchPage, cfg.MinDelay, cfg.MaxDelay)

	w := worker.NewWorker(ctx, cfg, regionScraper, enricher, services.Publisher)

	// Run the crawl pass in a goroutine so a signal can cut it short
	workerDone := make(chan error, 1)
	go func() {
		workerDone <- w.Start()
	}()

	select {
	case sig := <-sigChan:
		log.Warn().
			Str("signal", sig.String()).
			Msg("Received shutdown signal, unflushed progress since the last checkpoint is lost")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Crawl exited with error")
		} else {
			log.Info().Msg("Crawl completed")
		}
	}
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg config.Config) (*Services, error) {
	services := &Services{}

	// Cool-down blocklist cache
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	if cacheService == nil {
		return nil, fmt.Errorf("failed to create cache service")
	}
	services.Cache = cacheService

	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Fresh-listing stream publisher
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	if redisPublisher == nil {
		return nil, fmt.Errorf("failed to create redis publisher")
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	return services, nil
}
