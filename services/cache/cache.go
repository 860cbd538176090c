package cache

import (
	"time"
)

// CacheService represents a generic cache with expiring keys. The scraper
// uses it as the cool-down blocklist for regions the site has throttled, so
// a block survives process restarts within its window.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
