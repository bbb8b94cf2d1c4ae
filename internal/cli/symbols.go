package cli

import (
	"os"

	"github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/manifest"
	"github.com/spf13/cobra"
)

var (
	symbolsToken    string
	symbolsPlatform string
)

// NewSymbolsCmd creates the symbols command.
func NewSymbolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "Resolve symbol packages for an extension project",
		Long: `Resolve symbol packages for an extension project: platform symbols from
the Microsoft feed, declared dependencies from the AppSource feed, and the
GitHub package registry as a fallback for private extensions.`,
		RunE: runSymbols,
	}

	cmd.Flags().StringVar(&symbolsToken, "token", "", "GitHub token for the fallback registry (default: $GITHUB_TOKEN)")
	cmd.Flags().StringVar(&symbolsPlatform, "platform", "", "platform version override (default: from app.json)")
	return cmd
}

func runSymbols(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir, err := projectDir()
	if err != nil {
		return err
	}

	m, err := manifest.Load(dir)
	if err != nil {
		return err
	}

	orch, opts, err := buildOrchestrator(cfg, dir)
	if err != nil {
		return err
	}
	opts.PlatformVersion = m.PlatformVersion(cfg.Settings.PlatformDefault)
	if symbolsPlatform != "" {
		opts.PlatformVersion = symbolsPlatform
	}
	opts.Dependencies = m.Dependencies
	opts.Token = githubToken(symbolsToken)

	result, err := orch.Resolve(cmd.Context(), opts)
	if result != nil {
		renderResolution(os.Stdout, result)
	}
	if err != nil {
		return errors.Wrap(err, "symbol resolution failed")
	}
	return nil
}
