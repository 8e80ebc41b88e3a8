package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1*time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Retry.BackoffFactor)

	require.Len(t, cfg.Pipeline.Stages, len(StageOrder))
	for i, stage := range cfg.Pipeline.Stages {
		assert.Equal(t, StageOrder[i], stage.Name)
		assert.True(t, stage.Enabled)
	}
}

func TestLoad_StageToggles(t *testing.T) {
	t.Setenv("STAGE_SOCIAL_ENABLED", "false")
	t.Setenv("STAGE_EMAIL_ENABLED", "0")

	cfg, err := Load()
	require.NoError(t, err)

	byName := make(map[string]bool)
	for _, stage := range cfg.Pipeline.Stages {
		byName[stage.Name] = stage.Enabled
	}
	assert.True(t, byName["generate"])
	assert.False(t, byName["social"])
	assert.False(t, byName["email"])
}

func TestLoad_StageOrderOverride(t *testing.T) {
	t.Setenv("PIPELINE_STAGES", "keywords, generate ,deploy")

	cfg, err := Load()
	require.NoError(t, err)

	names := make([]string, len(cfg.Pipeline.Stages))
	for i, stage := range cfg.Pipeline.Stages {
		names[i] = stage.Name
	}
	assert.Equal(t, []string{"keywords", "generate", "deploy"}, names)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no stages", func(c *Config) { c.Pipeline.Stages = nil }},
		{"duplicate stage", func(c *Config) {
			c.Pipeline.Stages = []StageToggle{{Name: "generate"}, {Name: "generate"}}
		}},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"backoff below one", func(c *Config) { c.Retry.BackoffFactor = 0.5 }},
		{"bad port", func(c *Config) { c.Dashboard.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_DashboardOrigins(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Dashboard.AllowedOrigins)

	t.Setenv("DASHBOARD_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Dashboard.AllowedOrigins)
}

func TestSnapshot_ExcludesCredentials(t *testing.T) {
	t.Setenv("CONTENT_API_KEY", "super-secret")

	cfg, err := Load()
	require.NoError(t, err)

	snapshot := cfg.Snapshot()
	for _, value := range snapshot {
		assert.NotContains(t, value, "super-secret")
	}
	assert.Contains(t, snapshot, "stages")
	assert.Contains(t, snapshot, "retry")
}
