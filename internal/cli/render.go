package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lincza/albuild/pkg/model"
	"github.com/lincza/albuild/pkg/project"
)

// renderResolution writes the outcome of a symbol resolution run as tables:
// one row per dependency, then the symbol directory inventory.
func renderResolution(w io.Writer, result *model.ResolutionResult) {
	if len(result.Outcomes) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Dependency", "Status", "Package", "Version", "Feed", "Detail"})
		for _, o := range result.Outcomes {
			t.AppendRow(table.Row{o.Dependency.Label(), string(o.Status), o.PackageID, o.Version, o.Feed, o.Detail})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Artifact", "Size", "Source", "Placeholder"})
	for _, a := range result.Artifacts {
		placeholder := ""
		if a.Placeholder {
			placeholder = "yes"
		}
		t.AppendRow(table.Row{a.Name, formatSize(a.Size), a.Source, placeholder})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d artifacts", result.ArtifactCount()), formatSize(result.TotalSize), "", ""})
	t.SetStyle(table.StyleLight)
	t.Render()

	if missing := result.MissingCoreSymbols(); len(missing) > 0 {
		fmt.Fprintf(w, "Missing core symbols: %s\n", strings.Join(missing, ", "))
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

// renderAnalysis writes the project analysis summary.
func renderAnalysis(w io.Writer, a *project.Analysis) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendRows([]table.Row{
		{"Name", a.Manifest.Name},
		{"Publisher", a.Manifest.Publisher},
		{"Version", a.Manifest.Version},
		{"Target", string(a.Target)},
		{"Platform", a.VersionName},
		{"Runtime", a.Manifest.Runtime},
		{"AL files", a.Sources.ALFiles},
		{"Object types", len(a.Sources.ObjectTypes)},
		{"Dependencies", fmt.Sprintf("%d Microsoft, %d third-party", len(a.Dependencies.Microsoft), len(a.Dependencies.ThirdParty))},
		{"Symbols present", a.Readiness.SymbolCount},
		{"Ruleset", a.Readiness.HasRuleset()},
	})
	t.SetStyle(table.StyleLight)
	t.Render()

	if !a.Dependencies.HasSystemApp {
		fmt.Fprintln(w, "Note: manifest does not declare the System Application")
	}
	if a.Sources.HasTests {
		fmt.Fprintln(w, "Project contains test objects")
	}
}

// formatSize renders a byte count in the most readable unit.
func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
