// Package project analyzes an AL extension project: what kind of extension
// it is, what it depends on, what its sources contain and whether it is ready
// to build.
package project

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/manifest"
	"github.com/lincza/albuild/pkg/model"
)

// Target classifies a project by its declared object-ID ranges.
type Target string

const (
	// TargetAppSource marks marketplace extensions (IDs from 100000).
	TargetAppSource Target = "AppSource"
	// TargetPTE marks per-tenant extensions (IDs from 50000).
	TargetPTE Target = "PTE"
	// TargetOnPrem marks internal or development extensions.
	TargetOnPrem Target = "OnPrem"
)

// ID range floors for target classification.
const (
	appSourceRangeFloor = 100000
	pteRangeFloor       = 50000
)

// DependencyAnalysis splits the manifest's dependencies by publisher and
// flags the standard Microsoft layers among them.
type DependencyAnalysis struct {
	Microsoft      []model.Dependency
	ThirdParty     []model.Dependency
	HasSystemApp   bool
	HasBaseApp     bool
	HasApplication bool
}

// Analysis is the complete picture of one project.
type Analysis struct {
	Manifest     *manifest.Manifest
	Target       Target
	Dependencies DependencyAnalysis
	Sources      SourceAnalysis
	Readiness    Readiness
	// PlatformMajor is the major component of the platform version, 0 when
	// the manifest names none.
	PlatformMajor int
	// VersionName is the marketing name of the platform release.
	VersionName string
}

// Analyze loads the manifest in dir and analyzes the whole project.
func Analyze(dir string) (*Analysis, error) {
	m, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}
	return AnalyzeManifest(dir, m)
}

// AnalyzeManifest analyzes a project whose manifest is already loaded.
func AnalyzeManifest(dir string, m *manifest.Manifest) (*Analysis, error) {
	sources, err := ScanSources(dir)
	if err != nil {
		return nil, errors.Wrap(err, "source scan failed")
	}

	a := &Analysis{
		Manifest:     m,
		Target:       ClassifyTarget(m.IDRanges),
		Dependencies: AnalyzeDependencies(m.Dependencies),
		Sources:      *sources,
		Readiness:    CheckReadiness(dir),
	}

	if m.Application != "" {
		if v, verr := version.NewVersion(m.Application); verr == nil {
			a.PlatformMajor = v.Segments()[0]
			a.VersionName = VersionName(a.PlatformMajor)
		}
	}
	return a, nil
}

// ClassifyTarget derives the project target from its ID ranges. The highest
// applicable classification wins: one AppSource range makes the whole project
// an AppSource extension.
func ClassifyTarget(ranges []manifest.IDRange) Target {
	target := TargetOnPrem
	for _, r := range ranges {
		switch {
		case r.From >= appSourceRangeFloor:
			return TargetAppSource
		case r.From >= pteRangeFloor:
			target = TargetPTE
		}
	}
	return target
}

// AnalyzeDependencies splits dependencies into Microsoft and third-party and
// flags the standard application layers.
func AnalyzeDependencies(deps []model.Dependency) DependencyAnalysis {
	var da DependencyAnalysis
	for _, dep := range deps {
		if !dep.IsMicrosoft() {
			da.ThirdParty = append(da.ThirdParty, dep)
			continue
		}
		da.Microsoft = append(da.Microsoft, dep)
		switch {
		case strings.EqualFold(dep.Name, "System Application"):
			da.HasSystemApp = true
		case strings.EqualFold(dep.Name, "Base Application"):
			da.HasBaseApp = true
		case strings.EqualFold(dep.Name, "Application"):
			da.HasApplication = true
		}
	}
	return da
}

// versionNames maps a platform major version to its marketing name.
var versionNames = map[int]string{
	14: "2019 Release Wave 1",
	15: "2019 Release Wave 2",
	16: "2020 Release Wave 1",
	17: "2020 Release Wave 2",
	18: "2021 Release Wave 1",
	19: "2021 Release Wave 2",
	20: "2022 Release Wave 1",
	21: "2022 Release Wave 2",
	22: "2023 Release Wave 1",
	23: "2023 Release Wave 2",
	24: "2024 Release Wave 1",
	25: "2024 Release Wave 2",
	26: "2025 Release Wave 1",
}

// VersionName returns the marketing name for a platform major version, e.g.
// "BC 24 (2024 Release Wave 1)". Unknown versions get the bare "BC n" form.
func VersionName(major int) string {
	if name, ok := versionNames[major]; ok {
		return fmt.Sprintf("BC %d (%s)", major, name)
	}
	return fmt.Sprintf("BC %d", major)
}
