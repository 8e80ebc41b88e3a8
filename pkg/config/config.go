package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Site      SiteConfig      `json:"site"`
	Pipeline  PipelineConfig  `json:"pipeline"`
	Retry     RetryConfig     `json:"retry"`
	Providers ProvidersConfig `json:"providers"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Dashboard DashboardConfig `json:"dashboard"`
	Logging   LoggingConfig   `json:"logging"`
}

// SiteConfig describes the site the pipeline publishes
type SiteConfig struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Niche   string `json:"niche"`
}

// StageToggle is one ordered pipeline stage entry
type StageToggle struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// PipelineConfig contains the ordered stage list and report settings
type PipelineConfig struct {
	Stages     []StageToggle `json:"stages"`
	ReportsDir string        `json:"reports_dir"`
}

// RetryConfig contains the process-wide retry defaults
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
}

// ProvidersConfig contains per-provider credentials and endpoints
type ProvidersConfig struct {
	ContentAPIKey   string `json:"content_api_key"`
	DeployAPIKey    string `json:"deploy_api_key"`
	DeploySiteID    string `json:"deploy_site_id"`
	KeywordsAPIKey  string `json:"keywords_api_key"`
	SocialAPIKey    string `json:"social_api_key"`
	EmailAPIKey     string `json:"email_api_key"`
	EmailListID     string `json:"email_list_id"`
	AnalyticsAPIKey string `json:"analytics_api_key"`
	SEOAPIKey       string `json:"seo_api_key"`
}

// DatabaseConfig contains Postgres connection configuration
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// DashboardConfig contains the dashboard HTTP server configuration
type DashboardConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	AllowedOrigins []string      `json:"allowed_origins"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// StageOrder is the canonical execution order of the pipeline
var StageOrder = []string{
	"generate",
	"deploy",
	"keywords",
	"social",
	"email",
	"analytics",
	"seo",
}

// Load loads configuration from environment variables with sensible
// defaults. A .env file in the working directory is applied first when
// present.
func Load() (*Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	config := &Config{
		Site: SiteConfig{
			Name:    getEnvString("SITE_NAME", "pressbot-site"),
			BaseURL: getEnvString("SITE_BASE_URL", "https://example.com"),
			Niche:   getEnvString("SITE_NICHE", "technology"),
		},
		Pipeline: PipelineConfig{
			Stages:     loadStageToggles(),
			ReportsDir: getEnvString("PIPELINE_REPORTS_DIR", "./reports"),
		},
		Retry: RetryConfig{
			MaxAttempts:   getEnvInt("RETRY_MAX_ATTEMPTS", 3),
			InitialDelay:  getEnvDuration("RETRY_INITIAL_DELAY", 1*time.Second),
			MaxDelay:      getEnvDuration("RETRY_MAX_DELAY", 30*time.Second),
			BackoffFactor: getEnvFloat("RETRY_BACKOFF_FACTOR", 2.0),
		},
		Providers: ProvidersConfig{
			ContentAPIKey:   getEnvString("CONTENT_API_KEY", ""),
			DeployAPIKey:    getEnvString("DEPLOY_API_KEY", ""),
			DeploySiteID:    getEnvString("DEPLOY_SITE_ID", ""),
			KeywordsAPIKey:  getEnvString("KEYWORDS_API_KEY", ""),
			SocialAPIKey:    getEnvString("SOCIAL_API_KEY", ""),
			EmailAPIKey:     getEnvString("EMAIL_API_KEY", ""),
			EmailListID:     getEnvString("EMAIL_LIST_ID", ""),
			AnalyticsAPIKey: getEnvString("ANALYTICS_API_KEY", ""),
			SEOAPIKey:       getEnvString("SEO_API_KEY", ""),
		},
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "pressbot"),
			User:            getEnvString("DB_USER", "pressbot"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Dashboard: DashboardConfig{
			Host:           getEnvString("DASHBOARD_HOST", "0.0.0.0"),
			Port:           getEnvInt("DASHBOARD_PORT", 8080),
			ReadTimeout:    getEnvDuration("DASHBOARD_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvDuration("DASHBOARD_WRITE_TIMEOUT", 30*time.Second),
			AllowedOrigins: getEnvStringSlice("DASHBOARD_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
			Output: getEnvString("LOG_OUTPUT", "stdout"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadStageToggles builds the ordered stage list. PIPELINE_STAGES overrides
// the canonical order; STAGE_<NAME>_ENABLED toggles individual stages.
func loadStageToggles() []StageToggle {
	order := StageOrder
	if raw := os.Getenv("PIPELINE_STAGES"); raw != "" {
		order = nil
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				order = append(order, name)
			}
		}
	}

	toggles := make([]StageToggle, 0, len(order))
	for _, name := range order {
		envKey := fmt.Sprintf("STAGE_%s_ENABLED", strings.ToUpper(name))
		toggles = append(toggles, StageToggle{
			Name:    name,
			Enabled: getEnvBool(envKey, true),
		})
	}
	return toggles
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Pipeline.Stages) == 0 {
		return fmt.Errorf("pipeline must declare at least one stage")
	}
	seen := make(map[string]bool, len(c.Pipeline.Stages))
	for _, stage := range c.Pipeline.Stages {
		if seen[stage.Name] {
			return fmt.Errorf("duplicate pipeline stage: %s", stage.Name)
		}
		seen[stage.Name] = true
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1")
	}
	if c.Retry.BackoffFactor < 1 {
		return fmt.Errorf("retry backoff factor must be at least 1")
	}
	if c.Dashboard.Port < 1 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("invalid dashboard port: %d", c.Dashboard.Port)
	}
	return nil
}

// Snapshot returns the subset of configuration embedded in pipeline
// reports. Credentials are deliberately excluded.
func (c *Config) Snapshot() map[string]interface{} {
	stages := make([]map[string]interface{}, len(c.Pipeline.Stages))
	for i, stage := range c.Pipeline.Stages {
		stages[i] = map[string]interface{}{
			"name":    stage.Name,
			"enabled": stage.Enabled,
		}
	}
	return map[string]interface{}{
		"site":   c.Site.Name,
		"niche":  c.Site.Niche,
		"stages": stages,
		"retry": map[string]interface{}{
			"max_attempts":   c.Retry.MaxAttempts,
			"initial_delay":  c.Retry.InitialDelay.String(),
			"max_delay":      c.Retry.MaxDelay.String(),
			"backoff_factor": c.Retry.BackoffFactor,
		},
	}
}

// Environment variable helpers

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var parts []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
