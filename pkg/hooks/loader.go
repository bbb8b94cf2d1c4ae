package hooks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lincza/albuild/pkg/errors"
)

// scriptExt is the one supported hook script extension.
const scriptExt = ".tengo"

// LoadFromDir registers every recognized hook script in dir. A missing
// directory is fine: most projects carry no hooks.
func LoadFromDir(manager *Manager, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(errors.ErrHookLoad, "failed to read hook directory %s: %v", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), scriptExt) {
			continue
		}

		hookType := Type(strings.TrimSuffix(entry.Name(), scriptExt))
		if !knownTypes[hookType] {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return errors.Wrapf(errors.ErrHookLoad, "failed to read %s: %v", entry.Name(), err)
		}
		manager.Add(Hook{Type: hookType, Script: string(content)})
	}
	return nil
}
