package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lincza/albuild/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Len(t, cfg.Feeds, 2)
	assert.Equal(t, "MSSymbols", cfg.Feeds[0].Name)
	assert.Equal(t, "AppSourceSymbols", cfg.Feeds[1].Name)
	assert.Contains(t, cfg.Feeds[0].IndexURL, "MSSymbols/nuget/v3/index.json")

	assert.Equal(t, ".symbols", cfg.Settings.SymbolDir)
	assert.Equal(t, 30*time.Second, cfg.Settings.HTTPTimeout)
	assert.Equal(t, "26.0", cfg.Settings.PlatformDefault)
	assert.Equal(t, int64(1000), cfg.Settings.MinArtifactSize)
	assert.Equal(t, "lincza", cfg.Settings.GitHub.Org)
	assert.Equal(t, "linc", cfg.Settings.GitHub.Keyword)
	assert.Equal(t, []string{"attieretief", "token"}, cfg.Settings.GitHub.Usernames)
	assert.Equal(t, "http://timestamp.sectigo.com", cfg.Settings.Signing.TimestampURL)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromReader(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty document gets defaults",
			yaml: "",
			check: func(t *testing.T, cfg *Config) {
				assert.Len(t, cfg.Feeds, 2)
				assert.Equal(t, "info", cfg.Settings.LogLevel)
			},
		},
		{
			name: "custom feeds override defaults",
			yaml: `
feeds:
  - name: internal
    url: https://feed.example.test/nuget/v3/index.json
`,
			check: func(t *testing.T, cfg *Config) {
				require.Len(t, cfg.Feeds, 1)
				assert.Equal(t, "internal", cfg.Feeds[0].Name)
			},
		},
		{
			name: "partial settings keep remaining defaults",
			yaml: `
settings:
  http_timeout: 5s
  log_level: debug
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5*time.Second, cfg.Settings.HTTPTimeout)
				assert.Equal(t, "debug", cfg.Settings.LogLevel)
				assert.Equal(t, ".symbols", cfg.Settings.SymbolDir)
				assert.Equal(t, "lincza", cfg.Settings.GitHub.Org)
			},
		},
		{
			name:    "malformed yaml",
			yaml:    "settings: [oops",
			wantErr: errors.ErrConfigParse,
		},
		{
			name: "feed without url",
			yaml: `
feeds:
  - name: broken
`,
			wantErr: errors.ErrConfigValidation,
		},
		{
			name: "duplicate feed names",
			yaml: `
feeds:
  - name: dup
    url: https://a.example.test/index.json
  - name: dup
    url: https://b.example.test/index.json
`,
			wantErr: errors.ErrConfigValidation,
		},
		{
			name: "invalid log level",
			yaml: `
settings:
  log_level: loud
`,
			wantErr: errors.ErrConfigValidation,
		},
		{
			name: "invalid output format",
			yaml: `
settings:
  output_format: xml
`,
			wantErr: errors.ErrConfigValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfigFromReader(strings.NewReader(tt.yaml))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Len(t, cfg.Feeds, 2)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "config.yaml")

	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Settings.GitHub.Org = "example-org"
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.Settings.LogLevel)
	assert.Equal(t, "example-org", loaded.Settings.GitHub.Org)
	assert.Len(t, loaded.Feeds, 2)
}

func TestProjectRelativeDirs(t *testing.T) {
	cfg := DefaultConfig()

	symbolDir := cfg.SymbolDirFor("/work/myext")
	assert.Equal(t, filepath.Join("/work/myext", ".symbols"), symbolDir)

	cfg.Settings.SymbolDir = "/abs/symbols"
	assert.Equal(t, "/abs/symbols", cfg.SymbolDirFor("/work/myext"))

	hooks := cfg.HooksDirFor("/work/myext")
	assert.Equal(t, filepath.Join("/work/myext", ".albuild/hooks"), hooks)

	out := cfg.OutputDirFor("/work/myext")
	assert.Equal(t, filepath.Join("/work/myext", "output"), out)
}
