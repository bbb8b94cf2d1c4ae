package sign

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lincza/albuild/pkg/errors"
)

// fakeRunner records every invocation. For osslsigncode sign calls it writes
// the -out file the way the real tool would.
type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, _, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return []byte("tool error"), f.err
	}
	if len(args) > 0 && args[0] == "sign" {
		for i, arg := range args {
			if arg == "-out" && i+1 < len(args) {
				if err := os.WriteFile(args[i+1], []byte("NAVXsigned"), 0o644); err != nil {
					return nil, err
				}
			}
		}
	}
	return []byte("ok"), nil
}

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TestExt_1.0.0.0_0000000.app")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeCert(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cert.pfx")
	require.NoError(t, os.WriteFile(path, []byte("pkcs12-bundle"), 0o600))
	return path
}

func TestSignRejectsNonArtifact(t *testing.T) {
	appPath := writeArtifact(t, "PK\x03\x04 this is a zip, not a compiled extension")
	runner := &fakeRunner{}
	s := &Signer{Runner: runner, Tool: ToolOsslsigncode, ToolPath: "/usr/bin/osslsigncode"}

	err := s.Sign(context.Background(), appPath, Options{CertPath: writeCert(t)})
	assert.ErrorIs(t, err, errors.ErrNotSignable)
	assert.Empty(t, runner.calls, "no tool may run for a non-artifact file")
}

func TestSignMissingFile(t *testing.T) {
	s := &Signer{Runner: &fakeRunner{}, Tool: ToolOsslsigncode, ToolPath: "/usr/bin/osslsigncode"}
	err := s.Sign(context.Background(), filepath.Join(t.TempDir(), "nope.app"), Options{CertPath: "x"})
	assert.Error(t, err)
}

func TestSignWithOsslsigncode(t *testing.T) {
	appPath := writeArtifact(t, "NAVXcompiled extension bytes")
	certPath := writeCert(t)
	runner := &fakeRunner{}
	s := &Signer{Runner: runner, Tool: ToolOsslsigncode, ToolPath: "/usr/bin/osslsigncode"}

	err := s.Sign(context.Background(), appPath, Options{
		CertPath:     certPath,
		CertPassword: "secret",
		TimestampURL: "http://timestamp.sectigo.com",
	})
	require.NoError(t, err)

	require.Len(t, runner.calls, 2, "one sign call and one verify call")
	signCall := runner.calls[0]
	assert.Equal(t, "/usr/bin/osslsigncode", signCall[0])
	assert.Equal(t, []string{
		"sign",
		"-pkcs12", certPath,
		"-pass", "secret",
		"-t", "http://timestamp.sectigo.com",
		"-in", appPath,
		"-out", appPath + ".signed",
	}, signCall[1:])
	assert.Equal(t, []string{"/usr/bin/osslsigncode", "verify", appPath}, runner.calls[1])

	// signed output swapped over the original, temp removed
	content, err := os.ReadFile(appPath)
	require.NoError(t, err)
	assert.Equal(t, "NAVXsigned", string(content))
	assert.NoFileExists(t, appPath+".signed")
}

func TestSignWithOsslsigncodeNoPassword(t *testing.T) {
	appPath := writeArtifact(t, "NAVXbytes")
	runner := &fakeRunner{}
	s := &Signer{Runner: runner, Tool: ToolOsslsigncode, ToolPath: "/usr/bin/osslsigncode"}

	err := s.Sign(context.Background(), appPath, Options{CertPath: writeCert(t)})
	require.NoError(t, err)
	assert.NotContains(t, runner.calls[0], "-pass")
	assert.NotContains(t, runner.calls[0], "-t")
}

func TestSignWithSignTool(t *testing.T) {
	appPath := writeArtifact(t, "NAVXbytes")
	certPath := writeCert(t)
	runner := &fakeRunner{}
	s := &Signer{Runner: runner, Tool: ToolSignTool, ToolPath: `C:\signtool.exe`}

	err := s.Sign(context.Background(), appPath, Options{
		CertPath:     certPath,
		CertPassword: "secret",
		TimestampURL: "http://timestamp.sectigo.com",
	})
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{
		"sign",
		"/f", certPath,
		"/p", "secret",
		"/fd", "SHA256",
		"/tr", "http://timestamp.sectigo.com",
		"/td", "SHA256",
		"/v",
		appPath,
	}, runner.calls[0][1:])
	assert.Equal(t, []string{"verify", "/pa", appPath}, runner.calls[1][1:])
}

func TestSignToolFailure(t *testing.T) {
	appPath := writeArtifact(t, "NAVXbytes")
	s := &Signer{Runner: &fakeRunner{err: assert.AnError}, Tool: ToolOsslsigncode, ToolPath: "/usr/bin/osslsigncode"}

	err := s.Sign(context.Background(), appPath, Options{CertPath: writeCert(t)})
	assert.ErrorIs(t, err, errors.ErrSignFailed)
	assert.NoFileExists(t, appPath+".signed")
}

func TestVerifyFailureIsNotFatal(t *testing.T) {
	appPath := writeArtifact(t, "NAVXbytes")
	runner := &fakeRunner{}
	s := &Signer{
		Runner: runnerFunc(func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			if args[0] == "verify" {
				return []byte("cannot parse container"), assert.AnError
			}
			return runner.Run(ctx, dir, name, args...)
		}),
		Tool: ToolOsslsigncode, ToolPath: "/usr/bin/osslsigncode",
	}

	err := s.Sign(context.Background(), appPath, Options{CertPath: writeCert(t)})
	assert.NoError(t, err)
}

func TestMaterializeCertificateRejectsBadBase64(t *testing.T) {
	_, _, err := materializeCertificate("not base64 !!!", "")
	assert.ErrorIs(t, err, errors.ErrSignFailed)
}

func TestMaterializeCertificateRejectsGarbage(t *testing.T) {
	// valid base64, but not a PKCS#12 bundle
	garbage := base64.StdEncoding.EncodeToString([]byte("definitely not pkcs12"))
	_, _, err := materializeCertificate(garbage, "")
	assert.ErrorIs(t, err, errors.ErrSignFailed)
}

func TestMaterializeCertificateRequiresData(t *testing.T) {
	_, _, err := materializeCertificate("", "")
	assert.ErrorIs(t, err, errors.ErrSignFailed)
}

type runnerFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func (f runnerFunc) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return f(ctx, dir, name, args...)
}
