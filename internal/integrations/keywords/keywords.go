// Package keywords is a demo shim for the keyword-research provider.
// Results are sample data, cached in Redis so repeat runs inside the
// scrape window skip the provider call.
package keywords

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/pressbot/pressbot/internal/cache"
	"github.com/pressbot/pressbot/pkg/errors"
	"github.com/pressbot/pressbot/pkg/resilience"
)

// Config holds the provider configuration
type Config struct {
	APIKey      string
	CacheTTL    time.Duration
	FailureRate float64
}

// Keyword is one research result
type Keyword struct {
	Term       string `json:"term"`
	Volume     int    `json:"volume"`
	Difficulty int    `json:"difficulty"`
}

// Store is the slice of the cache service this client needs
type Store interface {
	Get(ctx context.Context, key cache.Key, dest interface{}) (bool, error)
	Set(ctx context.Context, key cache.Key, value interface{}, ttl time.Duration) error
}

// Client talks to the keyword provider
type Client struct {
	cfg   Config
	retry resilience.Options
	cache Store
	rng   *rand.Rand
}

// NewClient creates a keywords client. The cache is optional; without it
// every call goes to the provider.
func NewClient(cfg Config, retry resilience.Options, cacheService Store) *Client {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	return &Client{
		cfg:   cfg,
		retry: retry,
		cache: cacheService,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Research returns keyword suggestions for a seed term
func (c *Client) Research(ctx context.Context, seed string) ([]Keyword, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError("keywords provider API key is not configured")
	}
	seed = strings.ToLower(strings.TrimSpace(seed))
	if seed == "" {
		return nil, errors.NewValidationError("seed keyword is required")
	}

	key := cache.Key{Prefix: cache.PrefixKeywords, ID: seed}

	if c.cache != nil {
		var cached []Keyword
		if found, err := c.cache.Get(ctx, key, &cached); err == nil && found {
			return cached, nil
		}
		// Cache errors degrade to a provider call.
	}

	results, err := resilience.DoWithResult(ctx, c.retry, func(ctx context.Context) ([]Keyword, error) {
		return c.callProvider(seed)
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		// A failed cache write is not worth failing the stage over.
		_ = c.cache.Set(ctx, key, results, c.cfg.CacheTTL)
	}

	return results, nil
}

func (c *Client) callProvider(seed string) ([]Keyword, error) {
	if c.rng.Float64() < c.cfg.FailureRate {
		return nil, errors.NewRateLimitError("keyword provider throttled the request").WithStatusCode(429)
	}

	suffixes := []string{"guide", "tutorial", "best practices", "examples", "for beginners"}
	results := make([]Keyword, 0, len(suffixes))
	for _, suffix := range suffixes {
		results = append(results, Keyword{
			Term:       fmt.Sprintf("%s %s", seed, suffix),
			Volume:     500 + c.rng.Intn(10000),
			Difficulty: c.rng.Intn(100),
		})
	}
	return results, nil
}
