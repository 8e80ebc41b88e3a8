// Package seo is a demo shim for the SEO-metrics provider. Metrics are
// sample data; credential checks and retry wrapping are real.
package seo

import (
	"context"
	"math/rand"
	"time"

	"github.com/pressbot/pressbot/pkg/errors"
	"github.com/pressbot/pressbot/pkg/resilience"
)

// Config holds the provider configuration
type Config struct {
	APIKey      string
	FailureRate float64
}

// Metrics is a point-in-time SEO summary for a site
type Metrics struct {
	SiteURL         string    `json:"site_url"`
	DomainAuthority int       `json:"domain_authority"`
	Backlinks       int       `json:"backlinks"`
	IndexedPages    int       `json:"indexed_pages"`
	AvgPosition     float64   `json:"avg_position"`
	CapturedAt      time.Time `json:"captured_at"`
}

// Client talks to the SEO metrics provider
type Client struct {
	cfg   Config
	retry resilience.Options
	rng   *rand.Rand
}

// NewClient creates an SEO client
func NewClient(cfg Config, retry resilience.Options) *Client {
	return &Client{
		cfg:   cfg,
		retry: retry,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchMetrics returns current SEO metrics for the given site
func (c *Client) FetchMetrics(ctx context.Context, siteURL string) (*Metrics, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError("SEO provider API key is not configured")
	}
	if siteURL == "" {
		return nil, errors.NewValidationError("site URL is required")
	}

	return resilience.DoWithResult(ctx, c.retry, func(ctx context.Context) (*Metrics, error) {
		return c.callProvider(siteURL)
	})
}

func (c *Client) callProvider(siteURL string) (*Metrics, error) {
	if c.rng.Float64() < c.cfg.FailureRate {
		return nil, errors.NewRateLimitError("SEO provider rate limit hit")
	}

	return &Metrics{
		SiteURL:         siteURL,
		DomainAuthority: 20 + c.rng.Intn(60),
		Backlinks:       150 + c.rng.Intn(5000),
		IndexedPages:    40 + c.rng.Intn(300),
		AvgPosition:     3 + c.rng.Float64()*30,
		CapturedAt:      time.Now(),
	}, nil
}
