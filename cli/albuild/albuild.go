package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lincza/albuild/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	projectDir string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "albuild",
		Short: "Build automation for Business Central extensions",
		Long: `albuild automates the build pipeline of AL extension projects:
- analyze: classify the project and check build readiness
- symbols: resolve symbol packages from NuGet feeds and GitHub
- compile, sign, publish: produce, sign and submit the .app artifact`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (error, warn, info, debug)")
	cmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "project directory (default: working directory)")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.LogLevel = &logLevel
	cli.ProjectDir = &projectDir

	// Add subcommands
	cmd.AddCommand(
		cli.NewAnalyzeCmd(),
		cli.NewSymbolsCmd(),
		cli.NewCompileCmd(),
		cli.NewSignCmd(),
		cli.NewPublishCmd(),
		cli.NewRunCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
