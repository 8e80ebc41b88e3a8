package content

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

func TestGenerateArticle_RequiresAPIKey(t *testing.T) {
	c := NewClient(Config{Niche: "technology"}, fastRetry())

	_, err := c.GenerateArticle(context.Background(), "static site generators")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAuthentication))
}

func TestGenerateArticle_RequiresTopic(t *testing.T) {
	c := NewClient(Config{APIKey: "key", Niche: "technology"}, fastRetry())

	_, err := c.GenerateArticle(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestGenerateArticle_ReturnsSampleArticle(t *testing.T) {
	c := NewClient(Config{APIKey: "key", Niche: "technology"}, fastRetry())

	article, err := c.GenerateArticle(context.Background(), "static site generators")
	require.NoError(t, err)
	assert.Equal(t, "Static Site Generators: A Practical Guide", article.Title)
	assert.Equal(t, "static-site-generators", article.Slug)
	assert.NotEmpty(t, article.Body)
	assert.GreaterOrEqual(t, article.WordCount, 900)
	assert.Contains(t, article.Tags, "technology")
}

func TestGenerateArticle_RetriesTransientFailures(t *testing.T) {
	// FailureRate 1 makes every simulated call fail; the retry budget is
	// exhausted and the network error surfaces.
	c := NewClient(Config{APIKey: "key", FailureRate: 1}, fastRetry())

	_, err := c.GenerateArticle(context.Background(), "topic")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", slugify("  Hello World  "))
	assert.Equal(t, "go-123-tips", slugify("Go: 123 Tips!"))
}
