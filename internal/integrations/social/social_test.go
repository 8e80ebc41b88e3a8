package social

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

func TestPostUpdate_RequiresAPIKey(t *testing.T) {
	c := NewClient(Config{}, fastRetry())

	_, err := c.PostUpdate(context.Background(), "title", "https://example.com/post")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAuthentication))
}

func TestPostUpdate_DefaultsNetworks(t *testing.T) {
	c := NewClient(Config{APIKey: "key"}, fastRetry())

	posts, err := c.PostUpdate(context.Background(), "title", "https://example.com/post")
	require.NoError(t, err)
	require.Len(t, posts, len(DefaultNetworks))
	for i, post := range posts {
		assert.Equal(t, DefaultNetworks[i], post.Network)
		assert.NotEmpty(t, post.PostID)
	}
}

func TestPostUpdate_TagsFailedNetwork(t *testing.T) {
	c := NewClient(Config{APIKey: "key", Networks: []string{"x"}, FailureRate: 1}, fastRetry())

	_, err := c.PostUpdate(context.Background(), "title", "https://example.com/post")
	require.Error(t, err)

	perr := errors.FromError(err)
	assert.Equal(t, errors.CategoryNetwork, perr.Category)
	assert.Equal(t, "x", perr.Metadata["network"])
}
