// Package email is a demo shim for the newsletter provider. Campaign sends
// return sample campaign records; credential checks and retry wrapping are
// real.
package email

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
	ListID      string
	FailureRate float64
}

// Campaign describes one sent newsletter
type Campaign struct {
	ID         string    `json:"id"`
	ListID     string    `json:"list_id"`
	Subject    string    `json:"subject"`
	Recipients int       `json:"recipients"`
	SentAt     time.Time `json:"sent_at"`
}

// Client talks to the email provider
type Client struct {
	cfg   Config
	retry resilience.Options
	rng   *rand.Rand
}

// NewClient creates an email client
func NewClient(cfg Config, retry resilience.Options) *Client {
	return &Client{
		cfg:   cfg,
		retry: retry,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SendNewsletter sends a campaign announcing the given subject to the
// configured list
func (c *Client) SendNewsletter(ctx context.Context, subject string) (*Campaign, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError("email provider API key is not configured")
	}
	if c.cfg.ListID == "" {
		return nil, errors.NewValidationError("email list ID is required")
	}
	if subject == "" {
		return nil, errors.NewValidationError("newsletter subject is required")
	}

	return resilience.DoWithResult(ctx, c.retry, func(ctx context.Context) (*Campaign, error) {
		return c.callProvider(subject)
	})
}

func (c *Client) callProvider(subject string) (*Campaign, error) {
	if c.rng.Float64() < c.cfg.FailureRate {
		return nil, errors.NewTimeoutError("email provider send")
	}

	return &Campaign{
		ID:         fmt.Sprintf("cmp_%08x", c.rng.Uint32()),
		ListID:     c.cfg.ListID,
		Subject:    subject,
		Recipients: 1200 + c.rng.Intn(400),
		SentAt:     time.Now(),
	}, nil
}
