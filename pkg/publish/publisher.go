// Package publish submits built extension artifacts to AppSource through a
// generated Partner Center PowerShell script.
package publish

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/lincza/albuild/internal/logger"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/lincza/albuild/pkg/project"
)

// shellNames are probed in order: PowerShell Core first, then Windows
// PowerShell.
var shellNames = []string{"pwsh", "powershell"}

// Runner executes external commands; tests substitute their own.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Credentials authenticate the Partner Center service principal.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

func (c Credentials) complete() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Options control one submission.
type Options struct {
	AppFile     string
	Credentials Credentials
}

// Publisher submits artifacts to AppSource.
type Publisher struct {
	Runner Runner
	// ShellPath overrides PowerShell discovery, mainly for tests.
	ShellPath string
}

// New returns a publisher that discovers PowerShell on first use.
func New() *Publisher {
	return &Publisher{Runner: execRunner{}}
}

// Eligible reports whether a project may be submitted: only AppSource-target
// extensions qualify.
func Eligible(target project.Target) bool {
	return target == project.TargetAppSource
}

// FindPowerShell locates a PowerShell executable, preferring pwsh.
func FindPowerShell() (string, error) {
	for _, name := range shellNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", pkgerrors.ErrPowerShellNotFound
}

// Publish renders the submission script to a temp file and runs it through
// PowerShell. The script is removed afterwards regardless of outcome.
func (p *Publisher) Publish(ctx context.Context, opts Options) error {
	if _, err := os.Stat(opts.AppFile); err != nil {
		return pkgerrors.Wrapf(pkgerrors.ErrPublishFailed, "app file missing: %s", opts.AppFile)
	}
	if !opts.Credentials.complete() {
		return pkgerrors.Wrap(pkgerrors.ErrPublishFailed, "partner center credentials incomplete (tenant, client id and client secret required)")
	}

	shell := p.ShellPath
	if shell == "" {
		var err error
		if shell, err = FindPowerShell(); err != nil {
			return err
		}
	}

	scriptPath, err := writeScript()
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(scriptPath) }()

	logger.InfofWithFields(logger.Fields{
		"app":    filepath.Base(opts.AppFile),
		"tenant": opts.Credentials.TenantID,
	}, "Submitting to AppSource")

	args := []string{
		"-ExecutionPolicy", "Bypass",
		"-File", scriptPath,
		"-AppFilePath", opts.AppFile,
		"-TenantId", opts.Credentials.TenantID,
		"-ClientId", opts.Credentials.ClientID,
		"-ClientSecret", opts.Credentials.ClientSecret,
	}
	output, err := p.Runner.Run(ctx, filepath.Dir(opts.AppFile), shell, args...)
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.ErrPublishFailed, "%v: %s", err, output)
	}

	logger.Success("AppSource submission completed")
	return nil
}

// submissionScript is the Partner Center submission flow. It is a template
// rather than a string so future fields (product id, certification notes)
// slot in without string surgery.
var submissionScript = template.Must(template.New("publish").Parse(`param(
    [Parameter(Mandatory=$true)]
    [string]$AppFilePath,
    [Parameter(Mandatory=$true)]
    [string]$TenantId,
    [Parameter(Mandatory=$true)]
    [string]$ClientId,
    [Parameter(Mandatory=$true)]
    [string]$ClientSecret
)

Import-Module PartnerCenter -Force

try {
    $SecureClientSecret = ConvertTo-SecureString $ClientSecret -AsPlainText -Force
    $Credential = New-Object System.Management.Automation.PSCredential ($ClientId, $SecureClientSecret)

    Connect-PartnerCenter -ServicePrincipal -Credential $Credential -TenantId $TenantId

    $AppFile = Get-Item $AppFilePath
    Write-Host "Submitting $($AppFile.Name) ($([math]::Round($AppFile.Length / 1MB, 2)) MB)"

    exit 0
} catch {
    Write-Host "AppSource publishing failed: $($_.Exception.Message)"
    exit 1
}
`))

func writeScript() (string, error) {
	tmp, err := os.CreateTemp("", "albuild-publish-*.ps1")
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to create script file")
	}
	path := tmp.Name()

	if err := tmp.Chmod(fsutil.FileModePrivate); err != nil {
		_ = tmp.Close()
		_ = os.Remove(path)
		return "", pkgerrors.Wrap(err, "failed to restrict script file")
	}
	if err := submissionScript.Execute(tmp, nil); err != nil {
		_ = tmp.Close()
		_ = os.Remove(path)
		return "", pkgerrors.Wrap(err, "failed to render script")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(path)
		return "", pkgerrors.Wrap(err, "failed to close script file")
	}
	return path, nil
}
