// Package cli wires the albuild commands: configuration loading, component
// construction and rendering of resolution results.
package cli

import (
	"os"
	"path/filepath"

	"github.com/lincza/albuild/internal/logger"
	"github.com/lincza/albuild/pkg/config"
	"github.com/lincza/albuild/pkg/download"
	"github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/feed"
	"github.com/lincza/albuild/pkg/github"
	"github.com/lincza/albuild/pkg/hooks"
	"github.com/lincza/albuild/pkg/nupkg"
	"github.com/lincza/albuild/pkg/symbols"
)

// These variables are bound to the root command's persistent flags by the
// main package.
var (
	ConfigPath *string
	LogLevel   *string
	ProjectDir *string
)

// tokenEnvVar is the documented environment fallback for the GitHub fallback
// registry token.
const tokenEnvVar = "GITHUB_TOKEN"

// loadConfig loads the tool configuration and applies the global flag
// overrides.
func loadConfig() (*config.Config, error) {
	configPath := ""
	if ConfigPath != nil {
		configPath = *ConfigPath
	}
	if configPath == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, errors.Wrap(err, "failed to determine config path")
		}
		configPath = defaultPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	if LogLevel != nil && *LogLevel != "" {
		cfg.Settings.LogLevel = *LogLevel
	}
	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.OutputFormat))
	return cfg, nil
}

// projectDir returns the absolute project directory named by the --project
// flag, defaulting to the working directory.
func projectDir() (string, error) {
	dir := "."
	if ProjectDir != nil && *ProjectDir != "" {
		dir = *ProjectDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "invalid project directory %s", dir)
	}
	return abs, nil
}

// githubToken returns the fallback registry token: the flag value when set,
// else the environment.
func githubToken(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(tokenEnvVar)
}

// buildOrchestrator assembles the symbol resolution components for one
// project.
func buildOrchestrator(cfg *config.Config, dir string) (*symbols.Orchestrator, symbols.Options, error) {
	symbolDir := cfg.SymbolDirFor(dir)

	registry := feed.NewRegistry(cfg.Feeds, cfg.Settings.HTTPTimeout, cfg.Settings.UserAgent)
	msFeed := registry.FeedByName("MSSymbols")
	appSourceFeed := registry.FeedByName("AppSourceSymbols")
	if msFeed == nil || appSourceFeed == nil {
		return nil, symbols.Options{}, errors.Wrap(errors.ErrConfigValidation,
			"config must name both an MSSymbols and an AppSourceSymbols feed")
	}

	downloader := download.NewManager(cfg.Settings.HTTPTimeout, cfg.Settings.UserAgent)
	locator := feed.NewLocator(registry)
	fetcher := nupkg.NewFetcher(downloader, nupkg.Options{
		CacheDir:  cfg.GetDownloadCacheDir(),
		SymbolDir: symbolDir,
		MinSize:   cfg.Settings.MinArtifactSize,
	})
	fallback := github.NewResolver(downloader, github.Options{
		Org:       cfg.Settings.GitHub.Org,
		Keyword:   cfg.Settings.GitHub.Keyword,
		Usernames: cfg.Settings.GitHub.Usernames,
		CacheDir:  cfg.GetDownloadCacheDir(),
		SymbolDir: symbolDir,
		MinSize:   cfg.Settings.MinArtifactSize,
		Timeout:   cfg.Settings.HTTPTimeout,
		UserAgent: cfg.Settings.UserAgent,
	})

	orch := symbols.New(locator, fetcher, fallback, progressHooks())

	opts := symbols.Options{
		MicrosoftFeed:   msFeed,
		AppSourceFeed:   appSourceFeed,
		SymbolDir:       symbolDir,
		MinArtifactSize: cfg.Settings.MinArtifactSize,
		PlatformVersion: cfg.Settings.PlatformDefault,
	}
	return orch, opts, nil
}

// progressHooks turns orchestrator events into log lines.
func progressHooks() symbols.Hooks {
	return symbols.Hooks{OnEvent: func(e symbols.Event) {
		fields := logger.Fields{"phase": string(e.Phase)}
		if e.ID != "" {
			fields["id"] = e.ID
		}
		logger.Info(e.Msg, fields)
	}}
}

// loadHooks loads the project's pipeline hook scripts.
func loadHooks(cfg *config.Config, dir string) (*hooks.Manager, error) {
	manager := hooks.NewManager()
	if err := hooks.LoadFromDir(manager, cfg.HooksDirFor(dir)); err != nil {
		return nil, err
	}
	return manager, nil
}
