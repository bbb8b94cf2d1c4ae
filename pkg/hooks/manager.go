package hooks

import (
	"context"
	"fmt"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/lincza/albuild/internal/logger"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
)

// Manager holds the loaded scripts and runs them at phase boundaries.
type Manager struct {
	scripts map[Type]string
	timeout time.Duration
}

// NewManager creates an empty manager with the default script timeout.
func NewManager() *Manager {
	return &Manager{
		scripts: make(map[Type]string),
		timeout: DefaultTimeout,
	}
}

// SetTimeout overrides the per-script execution timeout.
func (m *Manager) SetTimeout(timeout time.Duration) {
	m.timeout = timeout
}

// Add registers a script for a hook type, replacing any previous one.
func (m *Manager) Add(hook Hook) {
	m.scripts[hook.Type] = hook.Script
}

// Has reports whether a script is registered for the hook type.
func (m *Manager) Has(hookType Type) bool {
	_, ok := m.scripts[hookType]
	return ok
}

// Execute runs the script registered for the hook type. A missing script is
// not an error. Script failure and timeouts surface as ErrHookExecution; a
// script setting a non-empty "err" variable fails with ErrHookScript.
func (m *Manager) Execute(ctx context.Context, hookType Type, hookCtx Context) error {
	source, ok := m.scripts[hookType]
	if !ok {
		return nil
	}

	logger.DebugfWithFields(logger.Fields{"hook": string(hookType)}, "Running pipeline hook")

	script := tengo.NewScript([]byte(source))
	script.SetImports(stdlib.GetModuleMap("fmt", "os", "text", "times"))

	vars := map[string]interface{}{
		"projectName": hookCtx.ProjectName,
		"version":     hookCtx.Version,
		"appFile":     hookCtx.AppFile,
		"phase":       hookCtx.Phase,
	}
	for k, v := range hookCtx.Vars {
		vars[k] = v
	}
	for k, v := range vars {
		if err := script.Add(k, v); err != nil {
			return pkgerrors.Wrapf(pkgerrors.ErrHookExecution, "%s: failed to bind %s: %v", hookType, k, err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	compiled, err := script.RunContext(runCtx)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", hookType, pkgerrors.ErrHookExecution, err)
	}

	if errVar := compiled.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return fmt.Errorf("%s: %w: %w", hookType, pkgerrors.ErrHookScript, v)
		case string:
			if v != "" {
				return fmt.Errorf("%s: %w: %s", hookType, pkgerrors.ErrHookScript, v)
			}
		}
	}
	return nil
}
