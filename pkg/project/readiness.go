package project

import (
	"os"
	"path/filepath"
)

// rulesetFilenames are checked in order; the first hit wins.
var rulesetFilenames = []string{"LincRuleSet.json", "ruleset.json"}

// Readiness records which build prerequisites and prior artifacts a project
// directory carries.
type Readiness struct {
	RulesetPath    string // empty when the project has no ruleset
	HasLaunchJSON  bool
	SymbolCount    int
	AppFileCount   int
	HasTestResults bool
}

// HasRuleset reports whether a compiler ruleset file is present.
func (r Readiness) HasRuleset() bool {
	return r.RulesetPath != ""
}

// HasSymbols reports whether the symbol directory already holds artifacts.
func (r Readiness) HasSymbols() bool {
	return r.SymbolCount > 0
}

// CheckReadiness inspects the project directory for build prerequisites.
func CheckReadiness(dir string) Readiness {
	var r Readiness

	for _, name := range rulesetFilenames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			r.RulesetPath = filepath.Join(dir, name)
			break
		}
	}

	if _, err := os.Stat(filepath.Join(dir, ".vscode", "launch.json")); err == nil {
		r.HasLaunchJSON = true
	}

	if symbols, err := filepath.Glob(filepath.Join(dir, ".symbols", "*.app")); err == nil {
		r.SymbolCount = len(symbols)
	}
	if apps, err := filepath.Glob(filepath.Join(dir, "*.app")); err == nil {
		r.AppFileCount = len(apps)
	}
	if results, err := filepath.Glob(filepath.Join(dir, "TestResults*.xml")); err == nil && len(results) > 0 {
		r.HasTestResults = true
	}
	return r
}
