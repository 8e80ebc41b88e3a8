// Package analytics is a demo shim for the traffic-analytics provider.
// Snapshots are sample data; credential checks and retry wrapping are real.
package analytics

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

// Snapshot is a point-in-time traffic summary
type Snapshot struct {
	Visitors   int       `json:"visitors"`
	PageViews  int       `json:"page_views"`
	BounceRate float64   `json:"bounce_rate"`
	TopPages   []string  `json:"top_pages"`
	CapturedAt time.Time `json:"captured_at"`
}

// Client talks to the analytics provider
type Client struct {
	cfg   Config
	retry resilience.Options
	rng   *rand.Rand
}

// NewClient creates an analytics client
func NewClient(cfg Config, retry resilience.Options) *Client {
	return &Client{
		cfg:   cfg,
		retry: retry,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchSnapshot returns the current traffic snapshot
func (c *Client) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError("analytics provider API key is not configured")
	}

	return resilience.DoWithResult(ctx, c.retry, func(ctx context.Context) (*Snapshot, error) {
		return c.callProvider()
	})
}

func (c *Client) callProvider() (*Snapshot, error) {
	if c.rng.Float64() < c.cfg.FailureRate {
		return nil, errors.NewAPIError("analytics provider API error").WithStatusCode(500)
	}

	visitors := 800 + c.rng.Intn(5000)
	return &Snapshot{
		Visitors:   visitors,
		PageViews:  visitors * (2 + c.rng.Intn(3)),
		BounceRate: 0.35 + c.rng.Float64()*0.3,
		TopPages:   []string{"/", "/blog", "/about"},
		CapturedAt: time.Now(),
	}, nil
}
