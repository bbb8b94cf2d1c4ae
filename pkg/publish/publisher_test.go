package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/project"
)

type fakeRunner struct {
	name string
	args []string
	err  error
}

func (f *fakeRunner) Run(_ context.Context, _, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	if f.err != nil {
		return []byte("script failed"), f.err
	}
	return []byte("ok"), nil
}

func writeApp(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TestExt_1.0.0.0_0000000.app")
	require.NoError(t, os.WriteFile(path, []byte("NAVXsigned"), 0o644))
	return path
}

var testCreds = Credentials{TenantID: "tenant-1", ClientID: "client-1", ClientSecret: "hush"}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible(project.TargetAppSource))
	assert.False(t, Eligible(project.TargetPTE))
	assert.False(t, Eligible(project.TargetOnPrem))
}

func TestPublish(t *testing.T) {
	appPath := writeApp(t)
	runner := &fakeRunner{}
	p := &Publisher{Runner: runner, ShellPath: "/usr/bin/pwsh"}

	err := p.Publish(context.Background(), Options{AppFile: appPath, Credentials: testCreds})
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/pwsh", runner.name)
	require.GreaterOrEqual(t, len(runner.args), 12)
	assert.Equal(t, "-ExecutionPolicy", runner.args[0])
	assert.Equal(t, "Bypass", runner.args[1])
	assert.Equal(t, "-File", runner.args[2])
	assert.Contains(t, runner.args, "-AppFilePath")
	assert.Contains(t, runner.args, appPath)
	assert.Contains(t, runner.args, "-TenantId")
	assert.Contains(t, runner.args, "tenant-1")

	// rendered script must be cleaned up afterwards
	scriptPath := runner.args[3]
	assert.NoFileExists(t, scriptPath)
}

func TestPublishScriptContent(t *testing.T) {
	appPath := writeApp(t)
	var script string
	p := &Publisher{
		Runner: runnerFunc(func(_ context.Context, _, _ string, args ...string) ([]byte, error) {
			data, err := os.ReadFile(args[3])
			if err != nil {
				return nil, err
			}
			script = string(data)
			return []byte("ok"), nil
		}),
		ShellPath: "/usr/bin/pwsh",
	}

	err := p.Publish(context.Background(), Options{AppFile: appPath, Credentials: testCreds})
	require.NoError(t, err)
	assert.Contains(t, script, "Connect-PartnerCenter")
	assert.Contains(t, script, "Import-Module PartnerCenter")
	assert.NotContains(t, script, "hush", "secrets stay out of the rendered script; they travel as arguments")
}

func TestPublishMissingApp(t *testing.T) {
	p := &Publisher{Runner: &fakeRunner{}, ShellPath: "/usr/bin/pwsh"}
	err := p.Publish(context.Background(), Options{
		AppFile:     filepath.Join(t.TempDir(), "nope.app"),
		Credentials: testCreds,
	})
	assert.ErrorIs(t, err, errors.ErrPublishFailed)
}

func TestPublishIncompleteCredentials(t *testing.T) {
	appPath := writeApp(t)
	runner := &fakeRunner{}
	p := &Publisher{Runner: runner, ShellPath: "/usr/bin/pwsh"}

	err := p.Publish(context.Background(), Options{
		AppFile:     appPath,
		Credentials: Credentials{TenantID: "tenant-1"},
	})
	assert.ErrorIs(t, err, errors.ErrPublishFailed)
	assert.Empty(t, runner.name, "no shell may run without complete credentials")
}

func TestPublishScriptFailure(t *testing.T) {
	appPath := writeApp(t)
	p := &Publisher{Runner: &fakeRunner{err: assert.AnError}, ShellPath: "/usr/bin/pwsh"}

	err := p.Publish(context.Background(), Options{AppFile: appPath, Credentials: testCreds})
	assert.ErrorIs(t, err, errors.ErrPublishFailed)
}

type runnerFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func (f runnerFunc) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return f(ctx, dir, name, args...)
}
