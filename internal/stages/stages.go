// Package stages wires the integration clients into pipeline stage
// handlers. Handlers share the artifacts of earlier stages (the generated
// article, the triggered deployment) through the Set; the pipeline runs
// them strictly in order, so no locking is needed beyond the Set itself.
package stages

import (
	"context"
	"fmt"

	"github.com/pressbot/pressbot/internal/integrations/analytics"
	"github.com/pressbot/pressbot/internal/integrations/content"
	"github.com/pressbot/pressbot/internal/integrations/deploy"
	"github.com/pressbot/pressbot/internal/integrations/email"
	"github.com/pressbot/pressbot/internal/integrations/keywords"
	"github.com/pressbot/pressbot/internal/integrations/seo"
	"github.com/pressbot/pressbot/internal/integrations/social"
	"github.com/pressbot/pressbot/internal/pipeline"
	"github.com/pressbot/pressbot/pkg/config"
	"github.com/pressbot/pressbot/pkg/errors"
	"github.com/pressbot/pressbot/pkg/logging"
	"github.com/pressbot/pressbot/pkg/metrics"
	"github.com/pressbot/pressbot/pkg/resilience"
)

// Set holds the integration clients and the artifacts passed between
// stages during a run.
type Set struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Metrics

	content   *content.Client
	deploy    *deploy.Client
	keywords  *keywords.Client
	social    *social.Client
	email     *email.Client
	analytics *analytics.Client
	seo       *seo.Client

	article    *content.Article
	deployment *deploy.Deployment
}

// New builds the stage set from configuration. The cache store is
// optional; without it keyword research always hits the provider.
func New(cfg *config.Config, cacheStore keywords.Store, m *metrics.Metrics) *Set {
	s := &Set{
		cfg:     cfg,
		logger:  logging.GetLogger(),
		metrics: m,
	}

	providers := cfg.Providers
	s.content = content.NewClient(content.Config{
		APIKey: providers.ContentAPIKey,
		Niche:  cfg.Site.Niche,
	}, s.retryOptions("generate"))
	s.deploy = deploy.NewClient(deploy.Config{
		APIKey: providers.DeployAPIKey,
		SiteID: providers.DeploySiteID,
	}, s.retryOptions("deploy"))
	s.keywords = keywords.NewClient(keywords.Config{
		APIKey: providers.KeywordsAPIKey,
	}, s.retryOptions("keywords"), cacheStore)
	s.social = social.NewClient(social.Config{
		APIKey: providers.SocialAPIKey,
	}, s.retryOptions("social"))
	s.email = email.NewClient(email.Config{
		APIKey: providers.EmailAPIKey,
		ListID: providers.EmailListID,
	}, s.retryOptions("email"))
	s.analytics = analytics.NewClient(analytics.Config{
		APIKey: providers.AnalyticsAPIKey,
	}, s.retryOptions("analytics"))
	s.seo = seo.NewClient(seo.Config{
		APIKey: providers.SEOAPIKey,
	}, s.retryOptions("seo"))

	return s
}

// retryOptions builds per-stage retry options from the process-wide retry
// configuration, with attempts surfaced as metrics and warnings.
func (s *Set) retryOptions(operation string) resilience.Options {
	return resilience.Options{
		MaxAttempts:   s.cfg.Retry.MaxAttempts,
		InitialDelay:  s.cfg.Retry.InitialDelay,
		MaxDelay:      s.cfg.Retry.MaxDelay,
		BackoffFactor: s.cfg.Retry.BackoffFactor,
		OnRetry: func(attempt int, err *errors.PipelineError) {
			if s.metrics != nil {
				s.metrics.RecordRetry(operation)
			}
			s.logger.Warn("Retrying operation",
				"operation", operation,
				"attempt", attempt,
				"error", err.Error(),
				"category", err.Category,
			)
		},
	}
}

// Handlers returns the stage handler map keyed by canonical stage name
func (s *Set) Handlers() map[string]pipeline.Handler {
	return map[string]pipeline.Handler{
		"generate":  s.runGenerate,
		"deploy":    s.runDeploy,
		"keywords":  s.runKeywords,
		"social":    s.runSocial,
		"email":     s.runEmail,
		"analytics": s.runAnalytics,
		"seo":       s.runSEO,
	}
}

func (s *Set) runGenerate(ctx context.Context) error {
	topic := fmt.Sprintf("%s trends", s.cfg.Site.Niche)
	article, err := s.content.GenerateArticle(ctx, topic)
	if err != nil {
		return err
	}
	s.article = article
	s.logger.Info("Article generated",
		"title", article.Title,
		"slug", article.Slug,
		"word_count", article.WordCount,
	)
	return nil
}

func (s *Set) runDeploy(ctx context.Context) error {
	deployment, err := s.deploy.TriggerDeploy(ctx)
	if err != nil {
		return err
	}
	s.deployment = deployment
	s.logger.Info("Deployment triggered",
		"deploy_id", deployment.ID,
		"url", deployment.URL,
		"state", deployment.State,
	)
	return nil
}

func (s *Set) runKeywords(ctx context.Context) error {
	results, err := s.keywords.Research(ctx, s.cfg.Site.Niche)
	if err != nil {
		return err
	}
	s.logger.Info("Keyword research completed", "keywords", len(results))
	return nil
}

func (s *Set) runSocial(ctx context.Context) error {
	title, url := s.articleLink()
	posts, err := s.social.PostUpdate(ctx, title, url)
	if err != nil {
		return err
	}
	s.logger.Info("Social updates posted", "networks", len(posts))
	return nil
}

func (s *Set) runEmail(ctx context.Context) error {
	title, _ := s.articleLink()
	campaign, err := s.email.SendNewsletter(ctx, title)
	if err != nil {
		return err
	}
	s.logger.Info("Newsletter sent",
		"campaign_id", campaign.ID,
		"recipients", campaign.Recipients,
	)
	return nil
}

func (s *Set) runAnalytics(ctx context.Context) error {
	snapshot, err := s.analytics.FetchSnapshot(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("Traffic snapshot captured",
		"visitors", snapshot.Visitors,
		"page_views", snapshot.PageViews,
	)
	return nil
}

func (s *Set) runSEO(ctx context.Context) error {
	m, err := s.seo.FetchMetrics(ctx, s.cfg.Site.BaseURL)
	if err != nil {
		return err
	}
	s.logger.Info("SEO metrics captured",
		"domain_authority", m.DomainAuthority,
		"backlinks", m.Backlinks,
	)
	return nil
}

// articleLink returns the title and URL to promote. When the generate
// stage is disabled or failed over to skipped, it falls back to the site
// itself.
func (s *Set) articleLink() (title, url string) {
	if s.article != nil {
		return s.article.Title, fmt.Sprintf("%s/posts/%s", s.cfg.Site.BaseURL, s.article.Slug)
	}
	return fmt.Sprintf("Latest from %s", s.cfg.Site.Name), s.cfg.Site.BaseURL
}
