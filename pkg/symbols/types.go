//go:generate mockgen -destination=./mocks/symbols.go . PackageLocator,PackageFetcher,FallbackResolver

package symbols

import (
	"context"

	"github.com/lincza/albuild/pkg/github"
	"github.com/lincza/albuild/pkg/model"
	"github.com/lincza/albuild/pkg/nupkg"
)

// PackageLocator is the subset of the feed locator used by the orchestrator.
type PackageLocator interface {
	Search(ctx context.Context, fd *model.FeedDescriptor, query string) (*model.CandidatePackage, error)
	Locate(ctx context.Context, fd *model.FeedDescriptor, dep model.Dependency) (*model.CandidatePackage, int, error)
}

// PackageFetcher is the subset of the package fetcher used by the orchestrator.
type PackageFetcher interface {
	Fetch(ctx context.Context, pkg *model.CandidatePackage, source string) (*nupkg.ExtractResult, error)
}

// FallbackResolver is the subset of the GitHub resolver used by the orchestrator.
type FallbackResolver interface {
	Applicable(dep model.Dependency) bool
	Resolve(ctx context.Context, dep model.Dependency, token string) (*github.Resolution, error)
}

// Orchestrator ties feed lookup, package fetching and the GitHub fallback
// together for one symbol resolution run.
type Orchestrator struct {
	Locator  PackageLocator
	Fetcher  PackageFetcher
	Fallback FallbackResolver // optional; nil disables the GitHub route
	Hooks    Hooks            // Hooks for progress and event notifications

	state State
}

// State identifies one phase of a resolution run. A run moves through the
// states in declaration order and enters each exactly once.
type State string

const (
	// StateInit validates the collaborators and run options.
	StateInit State = "init"
	// StatePlatformSymbols downloads the core platform symbol packages.
	StatePlatformSymbols State = "platform-symbols"
	// StateDependencyResolving resolves the manifest's third-party dependencies.
	StateDependencyResolving State = "dependency-resolving"
	// StateSummarizing takes stock of the symbol directory.
	StateSummarizing State = "summarizing"
	// StateDone is the terminal state.
	StateDone State = "done"
)

// Event represents a simple progress notification.
type Event struct {
	Phase State
	ID    string // package pattern or dependency label
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Options control one resolution run.
type Options struct {
	// PlatformVersion selects the platform symbol package set, e.g. "26.0".
	PlatformVersion string
	// Dependencies are the manifest entries to resolve.
	Dependencies []model.Dependency
	// MicrosoftFeed serves the platform symbol packages.
	MicrosoftFeed *model.FeedDescriptor
	// AppSourceFeed serves third-party dependency packages.
	AppSourceFeed *model.FeedDescriptor
	// SymbolDir is where artifacts land.
	SymbolDir string
	// MinArtifactSize is the size in bytes above which an existing artifact
	// counts as valid.
	MinArtifactSize int64
	// Token authenticates GitHub fallback requests. May be empty.
	Token string
}

// New constructs an Orchestrator from existing collaborators. Helper for wiring.
func New(locator PackageLocator, fetcher PackageFetcher, fallback FallbackResolver, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		Locator:  locator,
		Fetcher:  fetcher,
		Fallback: fallback,
		Hooks:    hooks,
	}
}

// State returns the phase the most recent run reached.
func (o *Orchestrator) State() State {
	return o.state
}
