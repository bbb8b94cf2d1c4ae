package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/lincza/albuild/internal/logger"
	"github.com/lincza/albuild/pkg/compile"
	"github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/lincza/albuild/pkg/hooks"
	"github.com/lincza/albuild/pkg/project"
	"github.com/lincza/albuild/pkg/publish"
	"github.com/lincza/albuild/pkg/sign"
	"github.com/spf13/cobra"
)

var (
	runModeFlag  string
	runCommit    string
	runToken     string
	runAlternate bool
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full build pipeline",
		Long: `Run the full build pipeline: analyze the project, resolve symbols,
compile, and where configured sign the artifact and submit it to AppSource.
Tengo hook scripts in the project's hook directory run at each phase
boundary.`,
		RunE: runPipeline,
	}

	cmd.Flags().StringVar(&runModeFlag, "mode", "release", "build mode (release, test)")
	cmd.Flags().StringVar(&runCommit, "commit", "", "commit hash recorded in the artifact name")
	cmd.Flags().StringVar(&runToken, "token", "", "GitHub token for the fallback registry (default: $GITHUB_TOKEN)")
	cmd.Flags().BoolVar(&runAlternate, "alternate-manifest", false, "use the version-specific app.json when present")
	return cmd
}

// pipeline carries the state threaded through the phases of one run.
type pipeline struct {
	analysis *project.Analysis
	hooks    *hooks.Manager
	appFile  string
	version  string
}

func (p *pipeline) hookContext(phase hooks.Type) hooks.Context {
	return hooks.Context{
		ProjectName: p.analysis.Manifest.Name,
		Version:     p.version,
		AppFile:     p.appFile,
		Phase:       string(phase),
	}
}

// phase runs the pre hook, the phase body and the post hook, in that order.
// A failing hook aborts the phase.
func (p *pipeline) phase(ctx context.Context, pre, post hooks.Type, body func() error) error {
	if err := p.hooks.Execute(ctx, pre, p.hookContext(pre)); err != nil {
		return err
	}
	if err := body(); err != nil {
		return err
	}
	return p.hooks.Execute(ctx, post, p.hookContext(post))
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir, err := projectDir()
	if err != nil {
		return err
	}
	mode, err := buildMode(runModeFlag)
	if err != nil {
		return err
	}

	analysis, err := project.Analyze(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to analyze project in %s", dir)
	}
	renderAnalysis(os.Stdout, analysis)

	manager, err := loadHooks(cfg, dir)
	if err != nil {
		return err
	}
	p := &pipeline{
		analysis: analysis,
		hooks:    manager,
		version:  analysis.Manifest.Version,
	}
	ctx := cmd.Context()

	err = p.phase(ctx, hooks.PreSymbols, hooks.PostSymbols, func() error {
		orch, opts, berr := buildOrchestrator(cfg, dir)
		if berr != nil {
			return berr
		}
		opts.PlatformVersion = analysis.Manifest.PlatformVersion(cfg.Settings.PlatformDefault)
		opts.Dependencies = analysis.Manifest.Dependencies
		opts.Token = githubToken(runToken)

		result, rerr := orch.Resolve(ctx, opts)
		if result != nil {
			renderResolution(os.Stdout, result)
		}
		return rerr
	})
	if err != nil {
		return errors.Wrap(err, "symbol resolution failed")
	}

	err = p.phase(ctx, hooks.PreBuild, hooks.PostBuild, func() error {
		compiler := compile.New()
		result, cerr := compiler.Build(ctx, compile.Options{
			ProjectDir:           dir,
			SymbolDir:            cfg.SymbolDirFor(dir),
			Mode:                 mode,
			Commit:               runCommit,
			UseAlternateManifest: runAlternate,
		})
		if cerr != nil {
			return cerr
		}

		outputDir := cfg.OutputDirFor(dir)
		if derr := fsutil.EnsureDir(outputDir); derr != nil {
			return errors.Wrap(derr, "failed to create output directory")
		}
		dest := filepath.Join(outputDir, filepath.Base(result.AppFile))
		if merr := fsutil.Move(result.AppFile, dest); merr != nil {
			return errors.Wrap(merr, "failed to move artifact to output directory")
		}

		p.appFile = dest
		p.version = result.Version
		logger.Successf("Built %s (%s, %s)", filepath.Base(dest), result.Version, formatSize(result.Size))
		return nil
	})
	if err != nil {
		return err
	}

	if cfg.Settings.Signing.Enabled {
		err = p.phase(ctx, hooks.PreSign, hooks.PostSign, func() error {
			signer := sign.New()
			return signer.Sign(ctx, p.appFile, sign.Options{
				CertBase64:   os.Getenv(certEnvVar),
				CertPassword: os.Getenv(certPasswordEnvVar),
				TimestampURL: cfg.Settings.Signing.TimestampURL,
			})
		})
		if err != nil {
			return err
		}
		logger.Successf("Signed %s", filepath.Base(p.appFile))
	}

	if cfg.Settings.Publish.Enabled && publish.Eligible(analysis.Target) {
		err = p.phase(ctx, hooks.PrePublish, hooks.PostPublish, func() error {
			publisher := publish.New()
			return publisher.Publish(ctx, publish.Options{
				AppFile: p.appFile,
				Credentials: publish.Credentials{
					TenantID:     cfg.Settings.Publish.TenantID,
					ClientID:     os.Getenv(clientIDEnvVar),
					ClientSecret: os.Getenv(clientSecretEnvVar),
				},
			})
		})
		if err != nil {
			return err
		}
		logger.Successf("Submitted %s to AppSource", filepath.Base(p.appFile))
	}

	logger.Success("Pipeline finished")
	return nil
}
