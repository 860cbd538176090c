package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// defaultRegionPath is the apartments-for-rent search for central Limassol,
// coordinates and radius included, used when no region is configured.
const defaultRegionPath = "/real-estate-to-rent/apartments-flats/?lat=34.69708393413313&lng=33.01509693679961&radius=15000"

// MainRegion groups region URLs configured without an explicit sub-region.
const MainRegion = "main"

// RegionTarget is one configured geographic search scope. Immutable for a run.
type RegionTarget struct {
	City   string
	Region string
	URL    string
}

// Config represents the application configuration
type Config struct {
	// Source site
	BaseURL string
	Regions []RegionTarget

	// Politeness delay bounds between fetches
	MinDelay time.Duration
	MaxDelay time.Duration

	// Cool-down applied to a region after the site throttles us
	BlockTime time.Duration

	// Checkpointing
	CheckpointEvery int
	OutputDir       string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	minDelayMs, _ := strconv.Atoi(getEnv("MIN_DELAY_MS", "100"))
	maxDelayMs, _ := strconv.Atoi(getEnv("MAX_DELAY_MS", "5000"))
	blockSeconds, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "500"))
	checkpointEvery, _ := strconv.Atoi(getEnv("CHECKPOINT_EVERY", "5"))

	baseURL := getEnv("BASE_URL", "https://www.bazaraki.com")

	return Config{
		BaseURL:              baseURL,
		Regions:              loadRegions(baseURL, os.Environ()),
		MinDelay:             time.Duration(minDelayMs) * time.Millisecond,
		MaxDelay:             time.Duration(maxDelayMs) * time.Millisecond,
		BlockTime:            time.Duration(blockSeconds) * time.Second,
		CheckpointEvery:      checkpointEvery,
		OutputDir:            getEnv("OUTPUT_DIR", "parsed_data"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "listings"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		Environment:          getEnv("SCRAPER_ENVIRONMENT", "development"),
	}
}

// loadRegions collects region targets from variables keyed
// `<CITY>[_<REGION>]_URL`. Keys without an explicit sub-region fall into the
// synthetic "main" region. With nothing configured the default Limassol
// search is used.
func loadRegions(baseURL string, environ []string) []RegionTarget {
	var regions []RegionTarget

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		city, region, ok := parseRegionKey(key)
		if !ok {
			continue
		}
		regions = append(regions, RegionTarget{
			City:   city,
			Region: region,
			URL:    value,
		})
	}

	if len(regions) == 0 {
		return []RegionTarget{{
			City:   "Limassol",
			Region: MainRegion,
			URL:    baseURL + defaultRegionPath,
		}}
	}

	// os.Environ order is not specified; keep runs deterministic
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].City != regions[j].City {
			return regions[i].City < regions[j].City
		}
		return regions[i].Region < regions[j].Region
	})

	return regions
}

// parseRegionKey splits an env key of the form <CITY>[_<REGION>]_URL.
// Reserved keys (BASE_URL, REDIS_*, MEMCACHE_*) are not region targets.
func parseRegionKey(key string) (city, region string, ok bool) {
	if !strings.HasSuffix(key, "_URL") {
		return "", "", false
	}
	name := strings.TrimSuffix(key, "_URL")
	if name == "" || name == "BASE" || strings.HasPrefix(name, "REDIS") || strings.HasPrefix(name, "MEMCACHE") {
		return "", "", false
	}
	for _, r := range name {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return "", "", false
		}
	}

	cityToken, regionToken, hasRegion := strings.Cut(name, "_")
	city = titleCase(cityToken)
	if city == "" {
		return "", "", false
	}
	if !hasRegion || regionToken == "" {
		return city, MainRegion, true
	}
	return city, strings.ToLower(strings.ReplaceAll(regionToken, "_", "-")), true
}

func titleCase(token string) string {
	if token == "" {
		return ""
	}
	lower := strings.ToLower(token)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// Validate checks the configuration for values the crawl cannot run with
func (c Config) Validate() error {
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid BASE_URL %q: %w", c.BaseURL, err)
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("no region targets configured")
	}
	for _, r := range c.Regions {
		if _, err := url.ParseRequestURI(r.URL); err != nil {
			return fmt.Errorf("invalid region URL for %s/%s: %w", r.City, r.Region, err)
		}
	}
	if c.MinDelay < 0 {
		return fmt.Errorf("MIN_DELAY_MS must not be negative")
	}
	if c.MaxDelay < c.MinDelay {
		return fmt.Errorf("MAX_DELAY_MS must not be below MIN_DELAY_MS")
	}
	if c.CheckpointEvery < 1 {
		return fmt.Errorf("CHECKPOINT_EVERY must be at least 1")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	return nil
}

// Cities returns the configured city names in a stable order, each paired
// with its region targets in configuration order.
func (c Config) Cities() []string {
	var cities []string
	seen := make(map[string]bool)
	for _, r := range c.Regions {
		if !seen[r.City] {
			seen[r.City] = true
			cities = append(cities, r.City)
		}
	}
	return cities
}

// RegionsFor returns the region targets configured under one city.
func (c Config) RegionsFor(city string) []RegionTarget {
	var out []RegionTarget
	for _, r := range c.Regions {
		if r.City == city {
			out = append(out, r)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
