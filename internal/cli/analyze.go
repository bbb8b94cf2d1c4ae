package cli

import (
	"os"

	"github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/project"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Analyze an extension project",
		Long: `Analyze an extension project: classify its target from the manifest's
ID ranges, split the declared dependencies, scan the AL sources and check
build readiness.`,
		RunE: runAnalyze,
	}
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	dir, err := projectDir()
	if err != nil {
		return err
	}

	analysis, err := project.Analyze(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to analyze project in %s", dir)
	}

	renderAnalysis(os.Stdout, analysis)
	return nil
}
