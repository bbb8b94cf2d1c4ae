// Package symbols orchestrates symbol resolution for an extension project:
// platform packages from the Microsoft feed, third-party dependencies from
// the AppSource feed, and the GitHub package registry as a fallback.
package symbols

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lincza/albuild/internal/logger"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/lincza/albuild/pkg/model"
	"github.com/lincza/albuild/pkg/nupkg"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

func (o *Orchestrator) advance(next State, msg string) {
	o.state = next
	emit(o.Hooks, Event{Phase: next, Msg: msg})
}

// Resolve runs one resolution: platform symbols first, then the declared
// dependencies, then a summary of the symbol directory. Missing third-party
// symbols are reported but never fail the run; a platform phase that yields
// no artifacts does.
func (o *Orchestrator) Resolve(ctx context.Context, opts Options) (*model.ResolutionResult, error) {
	o.advance(StateInit, "platform "+opts.PlatformVersion)
	packages, err := o.validate(opts)
	if err != nil {
		return nil, err
	}

	result := &model.ResolutionResult{
		PlatformVersion: opts.PlatformVersion,
		SymbolDir:       opts.SymbolDir,
	}

	o.advance(StatePlatformSymbols, opts.MicrosoftFeed.Name)
	result.Failed = !o.fetchPlatformSymbols(ctx, opts, packages, result)

	o.advance(StateDependencyResolving, fmt.Sprintf("%d dependencies", len(opts.Dependencies)))
	o.resolveDependencies(ctx, opts, result)

	o.advance(StateSummarizing, opts.SymbolDir)
	o.summarize(opts, result)

	o.advance(StateDone, fmt.Sprintf("%d artifacts", len(result.Artifacts)))
	if result.Failed {
		return result, pkgerrors.Wrap(pkgerrors.ErrNoSymbols, "platform symbol packages produced no artifacts")
	}
	return result, nil
}

func (o *Orchestrator) validate(opts Options) ([]PlatformPackage, error) {
	if o.Locator == nil {
		return nil, fmt.Errorf("package locator is not configured")
	}
	if o.Fetcher == nil {
		return nil, fmt.Errorf("package fetcher is not configured")
	}
	if opts.MicrosoftFeed == nil {
		return nil, fmt.Errorf("microsoft symbol feed is not configured")
	}
	if opts.AppSourceFeed == nil {
		return nil, fmt.Errorf("appsource symbol feed is not configured")
	}
	if opts.SymbolDir == "" {
		return nil, fmt.Errorf("symbol directory is not configured")
	}
	return PlatformPackages(opts.PlatformVersion)
}

// fetchPlatformSymbols downloads the core platform packages from the
// Microsoft feed. When the symbol directory already holds artifacts above the
// stub-size threshold the whole phase is skipped. It reports whether the
// phase left at least one usable artifact behind.
func (o *Orchestrator) fetchPlatformSymbols(ctx context.Context, opts Options, packages []PlatformPackage, result *model.ResolutionResult) bool {
	if existing := existingArtifactCount(opts.SymbolDir, opts.MinArtifactSize); existing > 0 {
		logger.InfofWithFields(logger.Fields{
			"count": existing,
			"dir":   opts.SymbolDir,
		}, "Existing symbols found, skipping platform download")
		emit(o.Hooks, Event{Phase: StatePlatformSymbols, Msg: fmt.Sprintf("%d existing symbol files, skipping download", existing)})
		return true
	}

	usable := 0
	for _, pp := range packages {
		emit(o.Hooks, Event{Phase: StatePlatformSymbols, ID: pp.Pattern, Msg: pp.Description})

		pkg, err := o.Locator.Search(ctx, opts.MicrosoftFeed, pp.Pattern)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("platform package %s: %v", pp.Pattern, err))
			logger.WarnfWithFields(logger.Fields{"pattern": pp.Pattern}, "%s not found on %s", pp.Description, opts.MicrosoftFeed.Name)
			continue
		}

		res, err := o.Fetcher.Fetch(ctx, pkg, opts.MicrosoftFeed.Name)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("platform package %s %s: %v", pkg.ID, pkg.Version, err))
			logger.WarnfWithFields(logger.Fields{"package": pkg.ID, "version": pkg.Version}, "%s download failed", pp.Description)
			continue
		}

		result.Artifacts = append(result.Artifacts, res.Artifacts...)
		usable += len(res.Artifacts) + len(res.Skipped)
		logger.DebugfWithFields(logger.Fields{
			"package": pkg.ID,
			"version": pkg.Version,
			"files":   len(res.Artifacts),
		}, "%s resolved", pp.Description)
	}
	return usable > 0
}

func (o *Orchestrator) resolveDependencies(ctx context.Context, opts Options, result *model.ResolutionResult) {
	for _, dep := range opts.Dependencies {
		if dep.IsMicrosoft() {
			logger.DebugfWithFields(logger.Fields{"dependency": dep.Label()}, "Covered by the platform symbol set")
			result.Outcomes = append(result.Outcomes, model.DependencyOutcome{
				Dependency: dep,
				Status:     model.StatusSkipped,
				Detail:     "covered by the platform symbol set",
			})
			continue
		}
		result.Outcomes = append(result.Outcomes, o.resolveDependency(ctx, opts, dep, result))
	}
}

// resolveDependency tries the AppSource feed first and falls back to the
// GitHub registry for publishers the fallback resolver accepts. Failures are
// recorded on the result, never returned.
func (o *Orchestrator) resolveDependency(ctx context.Context, opts Options, dep model.Dependency, result *model.ResolutionResult) model.DependencyOutcome {
	emit(o.Hooks, Event{Phase: StateDependencyResolving, ID: dep.Label(), Msg: "searching " + opts.AppSourceFeed.Name})

	pkg, queries, err := o.Locator.Locate(ctx, opts.AppSourceFeed, dep)
	if err == nil {
		res, ferr := o.Fetcher.Fetch(ctx, pkg, opts.AppSourceFeed.Name)
		if ferr == nil {
			result.Artifacts = append(result.Artifacts, res.Artifacts...)
			logger.InfofWithFields(logger.Fields{
				"dependency": dep.Label(),
				"package":    pkg.ID,
				"version":    pkg.Version,
			}, "Dependency resolved from %s", opts.AppSourceFeed.Name)
			return model.DependencyOutcome{
				Dependency:    dep,
				Status:        model.StatusResolved,
				PackageID:     pkg.ID,
				Version:       pkg.Version,
				Feed:          opts.AppSourceFeed.Name,
				SearchQueries: queries,
			}
		}
		err = ferr
	}

	if o.Fallback == nil || !o.Fallback.Applicable(dep) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("dependency %s: %v", dep.Label(), err))
		logger.WarnfWithFields(logger.Fields{"dependency": dep.Label()}, "Dependency not resolved: %v", err)
		return model.DependencyOutcome{
			Dependency:    dep,
			Status:        model.StatusUnresolved,
			SearchQueries: queries,
			Detail:        err.Error(),
		}
	}

	emit(o.Hooks, Event{Phase: StateDependencyResolving, ID: dep.Label(), Msg: "falling back to GitHub packages"})
	res, rerr := o.Fallback.Resolve(ctx, dep, opts.Token)
	if rerr != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("dependency %s: %v", dep.Label(), rerr))
		logger.WarnfWithFields(logger.Fields{"dependency": dep.Label()}, "GitHub fallback failed: %v", rerr)
		return model.DependencyOutcome{
			Dependency:    dep,
			Status:        model.StatusUnresolved,
			SearchQueries: queries,
			Detail:        rerr.Error(),
		}
	}

	result.Artifacts = append(result.Artifacts, res.Artifact)
	if res.Placeholder {
		result.Warnings = append(result.Warnings, fmt.Sprintf("dependency %s: placeholder written (%s)", dep.Label(), res.Reason))
		return model.DependencyOutcome{
			Dependency:    dep,
			Status:        model.StatusPlaceholder,
			PackageID:     res.PackageName,
			Version:       res.Version,
			Feed:          "github",
			SearchQueries: queries,
			Detail:        res.Reason,
		}
	}
	logger.InfofWithFields(logger.Fields{
		"dependency": dep.Label(),
		"package":    res.PackageName,
		"version":    res.Version,
	}, "Dependency resolved from GitHub packages")
	return model.DependencyOutcome{
		Dependency:    dep,
		Status:        model.StatusResolvedFallback,
		PackageID:     res.PackageName,
		Version:       res.Version,
		Feed:          "github",
		SearchQueries: queries,
	}
}

// summarize replaces the per-phase artifact list with what is actually in
// the symbol directory, so reruns over a warm directory report the full
// picture. Provenance recorded during this run is kept; everything else is
// labelled existing.
func (o *Orchestrator) summarize(opts Options, result *model.ResolutionResult) {
	produced := make(map[string]model.ArtifactFile, len(result.Artifacts))
	for _, a := range result.Artifacts {
		produced[a.Name] = a
	}

	entries, err := os.ReadDir(opts.SymbolDir)
	if err != nil && !os.IsNotExist(err) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("symbol directory: %v", err))
	}

	var files []model.ArtifactFile
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), nupkg.ArtifactExt) {
			continue
		}
		info, ierr := entry.Info()
		if ierr != nil {
			continue
		}
		af := model.ArtifactFile{
			Name: entry.Name(),
			Path: filepath.Join(opts.SymbolDir, entry.Name()),
			Size: info.Size(),
		}
		if prev, ok := produced[entry.Name()]; ok {
			af.Source = prev.Source
			af.Placeholder = prev.Placeholder
		} else {
			af.Source = "existing"
			if isExt, eerr := model.IsExtensionArtifactFile(af.Path); eerr == nil && !isExt {
				af.Placeholder = true
			}
		}
		files = append(files, af)
		total += info.Size()
	}
	result.Artifacts = files
	result.TotalSize = total

	for _, label := range CoreSymbolLabels {
		present := false
		for _, af := range files {
			if strings.Contains(af.Name, label) {
				present = true
				break
			}
		}
		result.CoreSymbols = append(result.CoreSymbols, model.CoreSymbolStatus{Label: label, Present: present})
	}

	if missing := result.MissingCoreSymbols(); len(missing) > 0 {
		logger.WarnfWithFields(logger.Fields{
			"missing": strings.Join(missing, ", "),
		}, "Core platform symbols missing, compilation may fail")
	}
}

// existingArtifactCount counts artifact files in dir above the stub-size
// threshold. Placeholders and truncated downloads fall below it and do not
// suppress a fresh platform download.
func existingArtifactCount(dir string, minSize int64) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), nupkg.ArtifactExt) {
			continue
		}
		if fsutil.FileSizeAbove(filepath.Join(dir, entry.Name()), minSize) {
			count++
		}
	}
	return count
}
