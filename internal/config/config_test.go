package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, 60, cfg.Analytics.DefaultWindow)
	assert.Equal(t, "log", cfg.Analytics.ReturnKind)
	assert.True(t, cfg.Scrape.Headless)
	assert.NotEmpty(t, cfg.Scrape.SourceURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			modify: func(c *Config) {},
		},
		{
			name:    "invalid port",
			modify:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero read timeout",
			modify:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: "read timeout must be positive",
		},
		{
			name:    "missing source URL",
			modify:  func(c *Config) { c.Scrape.SourceURL = "" },
			wantErr: "source URL must be set",
		},
		{
			name:    "window too small",
			modify:  func(c *Config) { c.Analytics.DefaultWindow = 1 },
			wantErr: "window must be at least 2",
		},
		{
			name:    "bad return kind",
			modify:  func(c *Config) { c.Analytics.ReturnKind = "geometric" },
			wantErr: "invalid return kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}

func TestMergeConfigs(t *testing.T) {
	fileCfg := Config{}
	fileCfg.Server.Port = 9090
	fileCfg.Scrape.SourceURL = "https://example.com/constituents"
	fileCfg.Analytics.DefaultWindow = 30

	envCfg := Config{}
	envCfg.Server.Port = 8081 // env wins

	merged := mergeConfigs(fileCfg, envCfg)

	assert.Equal(t, 8081, merged.Server.Port)
	assert.Equal(t, "https://example.com/constituents", merged.Scrape.SourceURL)
	assert.Equal(t, 30, merged.Analytics.DefaultWindow)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  port: 9999
scrape:
  source_url: https://example.com/index
analytics:
  default_window: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := loadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "https://example.com/index", cfg.Scrape.SourceURL)
	assert.Equal(t, 20, cfg.Analytics.DefaultWindow)
}

func TestLoadFromFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := loadFromFile(path)
	assert.Error(t, err)
}
