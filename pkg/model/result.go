package model

// DependencyStatus describes how one dependency was resolved.
type DependencyStatus string

const (
	// StatusResolved indicates the dependency was located and fetched from a feed.
	StatusResolved DependencyStatus = "resolved"
	// StatusResolvedFallback indicates the dependency came from the GitHub fallback.
	StatusResolvedFallback DependencyStatus = "github"
	// StatusPlaceholder indicates a placeholder artifact was written instead.
	StatusPlaceholder DependencyStatus = "placeholder"
	// StatusSkipped indicates the dependency needed no lookup (Microsoft publisher).
	StatusSkipped DependencyStatus = "skipped"
	// StatusUnresolved indicates neither the feeds nor the fallback produced an artifact.
	StatusUnresolved DependencyStatus = "unresolved"
)

// DependencyOutcome records the resolution of a single dependency.
type DependencyOutcome struct {
	Dependency    Dependency
	Status        DependencyStatus
	PackageID     string
	Version       string
	Feed          string
	SearchQueries int
	Detail        string
}

// CoreSymbolStatus records whether a core platform symbol is present in the
// symbol directory.
type CoreSymbolStatus struct {
	Label   string
	Present bool
}

// ResolutionResult is the summary of one symbol resolution run.
type ResolutionResult struct {
	PlatformVersion string
	SymbolDir       string
	Artifacts       []ArtifactFile
	Outcomes        []DependencyOutcome
	CoreSymbols     []CoreSymbolStatus
	Warnings        []string
	TotalSize       int64
	// Failed is set only when the platform phase produced an empty symbol
	// directory; missing third-party symbols alone never fail a run.
	Failed bool
}

// ArtifactCount returns the number of artifacts in the symbol directory.
func (r *ResolutionResult) ArtifactCount() int {
	return len(r.Artifacts)
}

// PlaceholderCount returns the number of placeholder artifacts.
func (r *ResolutionResult) PlaceholderCount() int {
	n := 0
	for _, a := range r.Artifacts {
		if a.Placeholder {
			n++
		}
	}
	return n
}

// MissingCoreSymbols lists core platform symbols absent from the directory.
func (r *ResolutionResult) MissingCoreSymbols() []string {
	var missing []string
	for _, cs := range r.CoreSymbols {
		if !cs.Present {
			missing = append(missing, cs.Label)
		}
	}
	return missing
}
