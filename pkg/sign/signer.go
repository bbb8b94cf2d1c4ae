// Package sign code-signs compiled extension artifacts with a PKCS#12
// certificate, through signtool on Windows or osslsigncode elsewhere.
package sign

import (
	"context"
	"encoding/base64"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"golang.org/x/crypto/pkcs12"

	"github.com/lincza/albuild/internal/logger"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/lincza/albuild/pkg/model"
)

// Tool identifies which signing executable is driven.
type Tool string

const (
	// ToolSignTool is the Windows SDK signtool.
	ToolSignTool Tool = "signtool"
	// ToolOsslsigncode is the cross-platform osslsigncode.
	ToolOsslsigncode Tool = "osslsigncode"
)

// Runner executes external commands; tests substitute their own.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// execRunner runs commands through os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Options control one signing run.
type Options struct {
	// CertBase64 is the base64-encoded PKCS#12 certificate bundle.
	CertBase64 string
	// CertPath points at an already-materialized .pfx file and takes
	// precedence over CertBase64. Used when the certificate comes from a
	// vault rather than an environment secret.
	CertPath string
	// CertPassword unlocks the bundle. Empty is a valid password.
	CertPassword string
	// TimestampURL is the RFC 3161 timestamp authority.
	TimestampURL string
}

// Signer signs extension artifacts.
type Signer struct {
	Runner Runner
	// Tool and ToolPath override discovery, mainly for tests.
	Tool     Tool
	ToolPath string
}

// New returns a signer that discovers the platform signing tool on first use.
func New() *Signer {
	return &Signer{Runner: execRunner{}}
}

// FindTool locates the signing executable for the current platform: signtool
// on Windows, osslsigncode everywhere else.
func FindTool() (Tool, string, error) {
	if runtime.GOOS == "windows" {
		if path, err := exec.LookPath("signtool"); err == nil {
			return ToolSignTool, path, nil
		}
		return "", "", pkgerrors.Wrap(pkgerrors.ErrSignToolNotFound, "signtool not on PATH")
	}
	if path, err := exec.LookPath("osslsigncode"); err == nil {
		return ToolOsslsigncode, path, nil
	}
	return "", "", pkgerrors.Wrap(pkgerrors.ErrSignToolNotFound, "osslsigncode not on PATH")
}

// Sign signs the artifact at appPath in place. Only compiled extension
// artifacts are signable; placeholders and other files fail with
// ErrNotSignable before any certificate material is touched.
func (s *Signer) Sign(ctx context.Context, appPath string, opts Options) error {
	isExt, err := model.IsExtensionArtifactFile(appPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "cannot read %s", appPath)
	}
	if !isExt {
		return pkgerrors.Wrapf(pkgerrors.ErrNotSignable, "%s has no extension artifact header", filepath.Base(appPath))
	}

	tool, toolPath := s.Tool, s.ToolPath
	if toolPath == "" {
		if tool, toolPath, err = FindTool(); err != nil {
			return err
		}
	}

	certPath := opts.CertPath
	if certPath == "" {
		var cleanup func()
		if certPath, cleanup, err = materializeCertificate(opts.CertBase64, opts.CertPassword); err != nil {
			return err
		}
		defer cleanup()
	}

	logger.InfofWithFields(logger.Fields{
		"file": filepath.Base(appPath),
		"tool": string(tool),
	}, "Signing artifact")

	switch tool {
	case ToolSignTool:
		err = s.signWithSignTool(ctx, toolPath, appPath, certPath, opts)
	case ToolOsslsigncode:
		err = s.signWithOsslsigncode(ctx, toolPath, appPath, certPath, opts)
	default:
		return pkgerrors.Wrapf(pkgerrors.ErrSignToolNotFound, "unknown signing tool %q", tool)
	}
	if err != nil {
		return err
	}

	s.verify(ctx, tool, toolPath, appPath)
	return nil
}

// materializeCertificate decodes the base64 bundle into a private temp file
// and sanity-decodes it as PKCS#12 so a bad secret fails before any signing
// tool runs. The caller must invoke the returned cleanup.
func materializeCertificate(certBase64, password string) (string, func(), error) {
	if certBase64 == "" {
		return "", nil, pkgerrors.Wrap(pkgerrors.ErrSignFailed, "no certificate provided")
	}

	data, err := base64.StdEncoding.DecodeString(certBase64)
	if err != nil {
		return "", nil, pkgerrors.Wrapf(pkgerrors.ErrSignFailed, "certificate is not valid base64: %v", err)
	}

	if _, _, err := pkcs12.Decode(data, password); err != nil {
		return "", nil, pkgerrors.Wrapf(pkgerrors.ErrSignFailed, "certificate bundle rejected: %v", err)
	}

	tmp, err := os.CreateTemp("", "albuild-cert-*.pfx")
	if err != nil {
		return "", nil, pkgerrors.Wrap(err, "failed to create certificate file")
	}
	path := tmp.Name()
	cleanup := func() { _ = os.Remove(path) }

	if err := tmp.Chmod(fsutil.FileModePrivate); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, pkgerrors.Wrap(err, "failed to restrict certificate file")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, pkgerrors.Wrap(err, "failed to write certificate file")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, pkgerrors.Wrap(err, "failed to close certificate file")
	}
	return path, cleanup, nil
}

func (s *Signer) signWithSignTool(ctx context.Context, toolPath, appPath, certPath string, opts Options) error {
	args := []string{
		"sign",
		"/f", certPath,
		"/p", opts.CertPassword,
		"/fd", "SHA256",
		"/tr", opts.TimestampURL,
		"/td", "SHA256",
		"/v",
		appPath,
	}
	output, err := s.Runner.Run(ctx, filepath.Dir(appPath), toolPath, args...)
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.ErrSignFailed, "signtool: %v: %s", err, output)
	}
	return nil
}

// signWithOsslsigncode signs into a sibling temp file and atomically swaps it
// over the original on success.
func (s *Signer) signWithOsslsigncode(ctx context.Context, toolPath, appPath, certPath string, opts Options) error {
	signedPath := appPath + ".signed"
	args := []string{"sign", "-pkcs12", certPath}
	if opts.CertPassword != "" {
		args = append(args, "-pass", opts.CertPassword)
	}
	if opts.TimestampURL != "" {
		args = append(args, "-t", opts.TimestampURL)
	}
	args = append(args, "-in", appPath, "-out", signedPath)

	output, err := s.Runner.Run(ctx, filepath.Dir(appPath), toolPath, args...)
	if err != nil {
		_ = os.Remove(signedPath)
		return pkgerrors.Wrapf(pkgerrors.ErrSignFailed, "osslsigncode: %v: %s", err, output)
	}
	if err := fsutil.ReplaceFile(signedPath, appPath); err != nil {
		_ = os.Remove(signedPath)
		return pkgerrors.Wrap(err, "failed to swap in signed file")
	}
	return nil
}

// verify checks the fresh signature. Verification problems are logged, not
// fatal: some tool builds cannot verify the proprietary container format.
func (s *Signer) verify(ctx context.Context, tool Tool, toolPath, appPath string) {
	var args []string
	switch tool {
	case ToolSignTool:
		args = []string{"verify", "/pa", appPath}
	case ToolOsslsigncode:
		args = []string{"verify", appPath}
	default:
		return
	}
	if output, err := s.Runner.Run(ctx, filepath.Dir(appPath), toolPath, args...); err != nil {
		logger.WarnfWithFields(logger.Fields{
			"file": filepath.Base(appPath),
		}, "Signature verification failed: %v: %s", err, output)
		return
	}
	logger.Debugf("Signature on %s verified", filepath.Base(appPath))
}
