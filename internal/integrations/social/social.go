// Package social is a demo shim for cross-posting to social networks.
// Posts return sample IDs; credential checks and retry wrapping are real.
package social

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pressbot/pressbot/pkg/errors"
	"github.com/pressbot/pressbot/pkg/resilience"
)

// DefaultNetworks are the networks posted to when none are configured
var DefaultNetworks = []string{"x", "linkedin", "mastodon"}

// Config holds the provider configuration
type Config struct {
	APIKey      string
	Networks    []string
	FailureRate float64
}

// Post is one published social update
type Post struct {
	Network  string    `json:"network"`
	PostID   string    `json:"post_id"`
	URL      string    `json:"url"`
	PostedAt time.Time `json:"posted_at"`
}

// Client talks to the social cross-posting provider
type Client struct {
	cfg   Config
	retry resilience.Options
	rng   *rand.Rand
}

// NewClient creates a social client
func NewClient(cfg Config, retry resilience.Options) *Client {
	if len(cfg.Networks) == 0 {
		cfg.Networks = DefaultNetworks
	}
	return &Client{
		cfg:   cfg,
		retry: retry,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// PostUpdate publishes an update about the given URL to every configured
// network. Each network call is retried independently.
func (c *Client) PostUpdate(ctx context.Context, title, url string) ([]Post, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError("social provider API key is not configured")
	}
	if title == "" || url == "" {
		return nil, errors.NewValidationError("post title and URL are required")
	}

	posts := make([]Post, 0, len(c.cfg.Networks))
	for _, network := range c.cfg.Networks {
		network := network
		post, err := resilience.DoWithResult(ctx, c.retry, func(ctx context.Context) (Post, error) {
			return c.callProvider(network)
		})
		if err != nil {
			return nil, errors.FromError(err).WithMetadata("network", network)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (c *Client) callProvider(network string) (Post, error) {
	if c.rng.Float64() < c.cfg.FailureRate {
		return Post{}, errors.NewNetworkError(fmt.Sprintf("connection refused by %s", network))
	}

	id := fmt.Sprintf("%d", 1_000_000_000+c.rng.Intn(1_000_000_000))
	return Post{
		Network:  network,
		PostID:   id,
		URL:      fmt.Sprintf("https://%s.example/posts/%s", network, id),
		PostedAt: time.Now(),
	}, nil
}
