// Package config provides configuration management for the albuild toolkit.
// It handles loading, validating, and managing application settings, symbol
// feeds, and the signing and publishing options. The package supports YAML
// configuration files and provides sensible defaults while allowing for
// customization through configuration files.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/lincza/albuild/pkg/model"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Symbol feed configuration, in lookup order.
	Feeds []*model.FeedDescriptor `yaml:"feeds"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// GitHubConfig configures the fallback resolver for private packages.
type GitHubConfig struct {
	// Org is the GitHub organisation whose package registry is searched.
	Org string `yaml:"org,omitempty"`
	// Keyword gates the fallback: only dependencies whose publisher contains
	// it (case-insensitively) are looked up on GitHub.
	Keyword string `yaml:"keyword,omitempty"`
	// Usernames are tried in order for basic authentication downloads.
	Usernames []string `yaml:"usernames,omitempty"`
}

// SigningConfig configures artifact code signing.
type SigningConfig struct {
	Enabled      bool   `yaml:"enabled"`
	TimestampURL string `yaml:"timestamp_url,omitempty"`
}

// PublishConfig configures AppSource submission.
type PublishConfig struct {
	Enabled  bool   `yaml:"enabled"`
	TenantID string `yaml:"tenant_id,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Directory names and paths
	SymbolDir string `yaml:"symbol_dir,omitempty"` // relative to the project root
	OutputDir string `yaml:"output_dir,omitempty"` // build artifact destination
	CacheDir  string `yaml:"cache_dir,omitempty"`
	HooksDir  string `yaml:"hooks_dir,omitempty"` // pipeline hook scripts

	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	UserAgent   string        `yaml:"user_agent,omitempty"`

	// Resolution settings
	PlatformDefault string `yaml:"platform_default,omitempty"` // BC version when the manifest has none
	MinArtifactSize int64  `yaml:"min_artifact_size,omitempty"`

	GitHub  GitHubConfig  `yaml:"github,omitempty"`
	Signing SigningConfig `yaml:"signing,omitempty"`
	Publish PublishConfig `yaml:"publish,omitempty"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // error, warn, info, debug
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultSymbolDir is where symbol artifacts are placed inside a project.
	DefaultSymbolDir = ".symbols"

	// DefaultHooksDir is where pipeline hook scripts live inside a project.
	DefaultHooksDir = ".albuild/hooks"

	// DefaultPlatformVersion is used when the manifest carries no application version.
	DefaultPlatformVersion = "26.0"

	// DefaultMinArtifactSize is the size in bytes above which an existing
	// artifact is considered valid and is never overwritten.
	DefaultMinArtifactSize = 1000

	// DefaultUserAgent identifies the toolkit on feed and registry requests.
	DefaultUserAgent = "albuild"

	// DefaultGitHubOrg is the organisation searched by the fallback resolver.
	DefaultGitHubOrg = "lincza"

	// DefaultFallbackKeyword gates the GitHub fallback by publisher.
	DefaultFallbackKeyword = "linc"

	// DefaultTimestampURL is the signing timestamp authority.
	DefaultTimestampURL = "http://timestamp.sectigo.com"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultFeeds returns the built-in symbol feed list in lookup order.
func DefaultFeeds() []*model.FeedDescriptor {
	return []*model.FeedDescriptor{
		{
			Name:     "MSSymbols",
			IndexURL: "https://dynamicssmb2.pkgs.visualstudio.com/DynamicsBCPublicFeeds/_packaging/MSSymbols/nuget/v3/index.json",
		},
		{
			Name:     "AppSourceSymbols",
			IndexURL: "https://dynamicssmb2.pkgs.visualstudio.com/DynamicsBCPublicFeeds/_packaging/AppSourceSymbols/nuget/v3/index.json",
		},
	}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}

	return &Config{
		Feeds: DefaultFeeds(),
		Settings: Settings{
			SymbolDir:       DefaultSymbolDir,
			OutputDir:       "output",
			CacheDir:        cacheDir,
			HooksDir:        DefaultHooksDir,
			HTTPTimeout:     DefaultHTTPTimeout,
			UserAgent:       DefaultUserAgent,
			PlatformDefault: DefaultPlatformVersion,
			MinArtifactSize: DefaultMinArtifactSize,
			GitHub: GitHubConfig{
				Org:       DefaultGitHubOrg,
				Keyword:   DefaultFallbackKeyword,
				Usernames: []string{"attieretief", "token"},
			},
			Signing: SigningConfig{
				TimestampURL: DefaultTimestampURL,
			},
			OutputFormat: "text",
			LogLevel:     "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to encode config")
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to rename temporary config file")
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateFeeds(c.Feeds); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateFeeds(feeds []*model.FeedDescriptor) error {
	names := make(map[string]bool)
	for i, feed := range feeds {
		if feed.Name == "" {
			return fmt.Errorf("feed %d: name cannot be empty", i)
		}
		if feed.IndexURL == "" {
			return fmt.Errorf("feed %s: url cannot be empty", feed.Name)
		}
		if names[feed.Name] {
			return fmt.Errorf("feed %s: duplicate name", feed.Name)
		}
		names[feed.Name] = true
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout cannot be negative")
	}
	if s.MinArtifactSize < 0 {
		return fmt.Errorf("min_artifact_size cannot be negative")
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return fmt.Errorf("invalid output format: %s", s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, fsutil.AppName, "config.yaml"), nil
}

// SymbolDirFor returns the absolute symbol directory for a project.
func (c *Config) SymbolDirFor(projectDir string) string {
	if filepath.IsAbs(c.Settings.SymbolDir) {
		return c.Settings.SymbolDir
	}
	return filepath.Join(projectDir, c.Settings.SymbolDir)
}

// HooksDirFor returns the absolute hook script directory for a project.
func (c *Config) HooksDirFor(projectDir string) string {
	if filepath.IsAbs(c.Settings.HooksDir) {
		return c.Settings.HooksDir
	}
	return filepath.Join(projectDir, c.Settings.HooksDir)
}

// OutputDirFor returns the absolute build output directory for a project.
func (c *Config) OutputDirFor(projectDir string) string {
	if filepath.IsAbs(c.Settings.OutputDir) {
		return c.Settings.OutputDir
	}
	return filepath.Join(projectDir, c.Settings.OutputDir)
}

// GetDownloadCacheDir returns the directory for downloaded package archives.
func (c *Config) GetDownloadCacheDir() string {
	return filepath.Join(c.Settings.CacheDir, "downloads")
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if len(c.Feeds) == 0 {
		c.Feeds = defaults.Feeds
	}
	if c.Settings.SymbolDir == "" {
		c.Settings.SymbolDir = defaults.Settings.SymbolDir
	}
	if c.Settings.OutputDir == "" {
		c.Settings.OutputDir = defaults.Settings.OutputDir
	}
	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.HooksDir == "" {
		c.Settings.HooksDir = defaults.Settings.HooksDir
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = defaults.Settings.UserAgent
	}
	if c.Settings.PlatformDefault == "" {
		c.Settings.PlatformDefault = defaults.Settings.PlatformDefault
	}
	if c.Settings.MinArtifactSize == 0 {
		c.Settings.MinArtifactSize = defaults.Settings.MinArtifactSize
	}
	if c.Settings.GitHub.Org == "" {
		c.Settings.GitHub.Org = defaults.Settings.GitHub.Org
	}
	if c.Settings.GitHub.Keyword == "" {
		c.Settings.GitHub.Keyword = defaults.Settings.GitHub.Keyword
	}
	if len(c.Settings.GitHub.Usernames) == 0 {
		c.Settings.GitHub.Usernames = defaults.Settings.GitHub.Usernames
	}
	if c.Settings.Signing.TimestampURL == "" {
		c.Settings.Signing.TimestampURL = defaults.Settings.Signing.TimestampURL
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
