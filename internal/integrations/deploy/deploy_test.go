package deploy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressbot/pressbot/pkg/errors"
	"github.com/pressbot/pressbot/pkg/resilience"
)

func fastRetry() resilience.Options {
	return resilience.Options{MaxAttempts: 3, InitialDelay: time.Millisecond}
}

func TestTriggerDeploy_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		category errors.ErrorCategory
	}{
		{"missing api key", Config{SiteID: "site"}, errors.CategoryAuthentication},
		{"missing site id", Config{APIKey: "key"}, errors.CategoryValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.cfg, fastRetry())
			_, err := c.TriggerDeploy(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, tt.category))
		})
	}
}

func TestTriggerDeploy_ReturnsBuildingDeployment(t *testing.T) {
	c := NewClient(Config{APIKey: "key", SiteID: "site"}, fastRetry())

	d, err := c.TriggerDeploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "site", d.SiteID)
	assert.Equal(t, "building", d.State)
	assert.NotEmpty(t, d.ID)
}

func TestGetStatus_ReturnsReady(t *testing.T) {
	c := NewClient(Config{APIKey: "key", SiteID: "site"}, fastRetry())

	d, err := c.GetStatus(context.Background(), "dep_123")
	require.NoError(t, err)
	assert.Equal(t, "dep_123", d.ID)
	assert.Equal(t, "ready", d.State)
}

func TestTriggerDeploy_SurfacesAPIErrors(t *testing.T) {
	c := NewClient(Config{APIKey: "key", SiteID: "site", FailureRate: 1}, fastRetry())

	_, err := c.TriggerDeploy(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAPI))
	// 502 is not a 4xx, so the retry budget was spent before giving up.
	assert.True(t, errors.IsRetryable(err))
}
