// Package content is a demo shim for the article-generation provider. It
// returns sample data instead of calling a real service; the request path,
// credential checks and retry wrapping are real.
package content

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/pressbot/pressbot/pkg/errors"
	"github.com/pressbot/pressbot/pkg/resilience"
)

// Config holds the provider configuration
type Config struct {
	APIKey string
	Niche  string
	// FailureRate injects simulated transient failures in [0,1)
	FailureRate float64
}

// Article is one generated piece of content
type Article struct {
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"`
	WordCount int       `json:"word_count"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Client talks to the content-generation provider
type Client struct {
	cfg   Config
	retry resilience.Options
	rng   *rand.Rand
}

// NewClient creates a content client
func NewClient(cfg Config, retry resilience.Options) *Client {
	return &Client{
		cfg:   cfg,
		retry: retry,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateArticle generates an article for the given topic
func (c *Client) GenerateArticle(ctx context.Context, topic string) (*Article, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError("content provider API key is not configured")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.NewValidationError("article topic is required")
	}

	return resilience.DoWithResult(ctx, c.retry, func(ctx context.Context) (*Article, error) {
		return c.callProvider(topic)
	})
}

// callProvider stands in for the real generation API call
func (c *Client) callProvider(topic string) (*Article, error) {
	if c.rng.Float64() < c.cfg.FailureRate {
		return nil, errors.NewNetworkError("connection reset by content provider")
	}

	title := fmt.Sprintf("%s: A Practical Guide", titleCase(topic))
	body := fmt.Sprintf(
		"# %s\n\nEverything you need to know about %s in the %s space.\n\n## Getting started\n\nSample body text.\n",
		title, topic, c.cfg.Niche,
	)
	return &Article{
		Title:     title,
		Slug:      slugify(topic),
		Body:      body,
		WordCount: 900 + c.rng.Intn(600),
		Tags:      []string{c.cfg.Niche, topic},
		CreatedAt: time.Now(),
	}, nil
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), "-")
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return -1
	}, s)
}
