// Package compile stamps AL projects with a build version and drives the AL
// compiler over the resolved symbol set.
package compile

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/lincza/albuild/internal/logger"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/lincza/albuild/pkg/manifest"
	"github.com/lincza/albuild/pkg/project"
)

// compiler executable names probed in order.
var compilerNames = []string{"alc", "AL"}

// errorLogName is the compiler's structured error output next to the project.
const errorLogName = "errorLog.json"

// backupName is where the original app.json rests while a build version is
// stamped into the working copy.
const backupName = "app.json.backup"

// Runner executes external commands. The production implementation shells
// out; tests substitute their own.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Run executes the command in dir and returns its combined output.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Options control one build.
type Options struct {
	ProjectDir string
	SymbolDir  string // package cache handed to the compiler
	Mode       Mode
	Commit     string // optional commit hash for the artifact name
	// UseAlternateManifest swaps in the generation-specific app.json
	// (bc17_app.json, cloud_app.json, ...) when the project carries one.
	UseAlternateManifest bool
	// Now supplies the build timestamp; zero means the wall clock.
	Now time.Time
}

// Result describes a finished build.
type Result struct {
	AppFile string // absolute path of the produced artifact
	Version string
	Size    int64
}

// Compiler builds AL projects through the vendor compiler.
type Compiler struct {
	Runner Runner
	// Path overrides compiler discovery, mainly for tests.
	Path string
}

// New returns a compiler that shells out to the first alc executable found.
func New() *Compiler {
	return &Compiler{Runner: ExecRunner{}}
}

// FindCompiler locates the AL compiler executable on the PATH or in the
// .dotnet tools directory.
func FindCompiler() (string, error) {
	for _, name := range compilerNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		for _, name := range compilerNames {
			tool := filepath.Join(home, ".dotnet", "tools", name)
			if info, err := os.Stat(tool); err == nil && !info.IsDir() {
				return tool, nil
			}
		}
	}
	return "", pkgerrors.ErrCompilerNotFound
}

// Build stamps the project's app.json with a generated build version, runs
// the compiler and restores the original manifest whatever the outcome.
func (c *Compiler) Build(ctx context.Context, opts Options) (*Result, error) {
	compilerPath := c.Path
	if compilerPath == "" {
		var err error
		if compilerPath, err = FindCompiler(); err != nil {
			return nil, err
		}
	}

	m, err := manifest.Load(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	buildVersion, err := BuildVersion(opts.Mode, m.PlatformVersion(""), now)
	if err != nil {
		return nil, err
	}

	restore, err := c.prepareManifest(opts, m, buildVersion)
	if err != nil {
		return nil, err
	}
	defer restore()

	outputFile := OutputFilename(m.CleanName(), buildVersion, opts.Commit)
	args := c.buildArgs(opts, m, outputFile)

	logger.InfofWithFields(logger.Fields{
		"project": m.Name,
		"version": buildVersion,
		"out":     outputFile,
	}, "Running AL compiler")

	output, err := c.Runner.Run(ctx, opts.ProjectDir, compilerPath, args...)
	if err != nil {
		logger.Error("Compiler output", logger.Fields{"output": string(output)})
		return nil, pkgerrors.Wrapf(pkgerrors.ErrCompileFailed, "compiler exited with error: %v", err)
	}

	appPath := filepath.Join(opts.ProjectDir, outputFile)
	info, err := os.Stat(appPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrCompileFailed, "compiler succeeded but %s is missing", outputFile)
	}

	return &Result{AppFile: appPath, Version: buildVersion, Size: info.Size()}, nil
}

// prepareManifest backs up app.json, optionally swaps in the
// generation-specific manifest, and stamps the build version. The returned
// function restores the original manifest and removes the backup.
func (c *Compiler) prepareManifest(opts Options, m *manifest.Manifest, buildVersion string) (func(), error) {
	appPath := filepath.Join(opts.ProjectDir, manifest.Filename)
	backupPath := filepath.Join(opts.ProjectDir, backupName)

	if err := fsutil.Copy(appPath, backupPath); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to back up app.json")
	}
	restore := func() {
		if err := fsutil.ReplaceFile(backupPath, appPath); err != nil {
			logger.Errorf("Failed to restore app.json from backup: %v", err)
		}
	}

	working := m
	if opts.UseAlternateManifest {
		altPath := filepath.Join(opts.ProjectDir, alternateManifest(m.PlatformVersion("")))
		if fileExists(altPath) {
			if alt, err := loadManifestFile(altPath); err == nil {
				logger.InfofWithFields(logger.Fields{"manifest": filepath.Base(altPath)}, "Using version-specific manifest")
				working = alt
			}
		}
	}

	working.Version = buildVersion
	if err := working.Save(appPath); err != nil {
		restore()
		return nil, pkgerrors.Wrap(err, "failed to stamp build version")
	}
	return restore, nil
}

func (c *Compiler) buildArgs(opts Options, m *manifest.Manifest, outputFile string) []string {
	target := m.Target
	if target == "" {
		target = "Cloud"
	}
	args := []string{
		"compile",
		"/project:" + opts.ProjectDir,
		"/out:" + outputFile,
		"/packagecachepath:" + opts.SymbolDir,
		"/target:" + target,
		"/loglevel:Normal",
		"/errorlog:" + filepath.Join(opts.ProjectDir, errorLogName),
	}
	if readiness := project.CheckReadiness(opts.ProjectDir); readiness.HasRuleset() {
		args = append(args, "/ruleset:"+readiness.RulesetPath)
	}
	return args
}

func loadManifestFile(path string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return manifest.Parse(data)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
