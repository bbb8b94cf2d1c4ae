package cli

import (
	"path/filepath"

	"github.com/lincza/albuild/internal/logger"
	"github.com/lincza/albuild/pkg/compile"
	"github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/spf13/cobra"
)

var (
	compileMode      string
	compileCommit    string
	compileAlternate bool
)

// NewCompileCmd creates the compile command.
func NewCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the extension with the AL compiler",
		Long: `Compile the extension with the AL compiler. The project's app.json is
stamped with a generated build version for the duration of the build and
restored afterwards. The produced .app file is moved to the output
directory.`,
		RunE: runCompile,
	}

	cmd.Flags().StringVar(&compileMode, "mode", "release", "build mode (release, test)")
	cmd.Flags().StringVar(&compileCommit, "commit", "", "commit hash recorded in the artifact name")
	cmd.Flags().BoolVar(&compileAlternate, "alternate-manifest", false, "use the version-specific app.json when present")
	return cmd
}

func buildMode(name string) (compile.Mode, error) {
	switch name {
	case "release", "":
		return compile.ModeRelease, nil
	case "test":
		return compile.ModeTest, nil
	default:
		return "", errors.Wrapf(errors.ErrCompileFailed, "unknown build mode %q", name)
	}
}

func runCompile(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir, err := projectDir()
	if err != nil {
		return err
	}
	mode, err := buildMode(compileMode)
	if err != nil {
		return err
	}

	compiler := compile.New()
	result, err := compiler.Build(cmd.Context(), compile.Options{
		ProjectDir:           dir,
		SymbolDir:            cfg.SymbolDirFor(dir),
		Mode:                 mode,
		Commit:               compileCommit,
		UseAlternateManifest: compileAlternate,
	})
	if err != nil {
		return err
	}

	outputDir := cfg.OutputDirFor(dir)
	if err := fsutil.EnsureDir(outputDir); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	dest := filepath.Join(outputDir, filepath.Base(result.AppFile))
	if err := fsutil.Move(result.AppFile, dest); err != nil {
		return errors.Wrap(err, "failed to move artifact to output directory")
	}

	logger.Successf("Built %s (%s, %s)", filepath.Base(dest), result.Version, formatSize(result.Size))
	return nil
}
