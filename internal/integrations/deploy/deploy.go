// Package deploy is a demo shim for the static-hosting provider. Deploy
// triggers return sample deployment records; credential checks and retry
// wrapping are real.
package deploy

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pressbot/pressbot/pkg/errors"
	"github.com/pressbot/pressbot/pkg/resilience"
)

// Config holds the provider configuration
type Config struct {
	APIKey      string
	SiteID      string
	FailureRate float64
}

// Deployment describes one triggered deploy
type Deployment struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id"`
	URL       string    `json:"url"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// Client talks to the deployment provider
type Client struct {
	cfg   Config
	retry resilience.Options
	rng   *rand.Rand
}

// NewClient creates a deploy client
func NewClient(cfg Config, retry resilience.Options) *Client {
	return &Client{
		cfg:   cfg,
		retry: retry,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// TriggerDeploy starts a new site deployment
func (c *Client) TriggerDeploy(ctx context.Context) (*Deployment, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError("deploy provider API key is not configured")
	}
	if c.cfg.SiteID == "" {
		return nil, errors.NewValidationError("deploy site ID is required")
	}

	return resilience.DoWithResult(ctx, c.retry, func(ctx context.Context) (*Deployment, error) {
		return c.callProvider()
	})
}

// GetStatus fetches the state of an existing deployment
func (c *Client) GetStatus(ctx context.Context, deployID string) (*Deployment, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError("deploy provider API key is not configured")
	}
	if deployID == "" {
		return nil, errors.NewValidationError("deployment ID is required")
	}

	return resilience.DoWithResult(ctx, c.retry, func(ctx context.Context) (*Deployment, error) {
		d, err := c.callProvider()
		if err != nil {
			return nil, err
		}
		d.ID = deployID
		d.State = "ready"
		return d, nil
	})
}

func (c *Client) callProvider() (*Deployment, error) {
	if c.rng.Float64() < c.cfg.FailureRate {
		return nil, errors.NewAPIError("deploy provider returned an API error").WithStatusCode(502)
	}

	return &Deployment{
		ID:        fmt.Sprintf("dep_%08x", c.rng.Uint32()),
		SiteID:    c.cfg.SiteID,
		URL:       fmt.Sprintf("https://%s.example-hosting.app", c.cfg.SiteID),
		State:     "building",
		CreatedAt: time.Now(),
	}, nil
}
