package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDependencyIsMicrosoft(t *testing.T) {
	tests := []struct {
		name      string
		publisher string
		want      bool
	}{
		{name: "exact case", publisher: "Microsoft", want: true},
		{name: "lower case", publisher: "microsoft", want: true},
		{name: "upper case", publisher: "MICROSOFT", want: true},
		{name: "third party", publisher: "Linc Communications (Pty) Ltd", want: false},
		{name: "contains microsoft", publisher: "Not Microsoft Inc", want: false},
		{name: "empty", publisher: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Dependency{Publisher: tt.publisher}
			assert.Equal(t, tt.want, d.IsMicrosoft())
		})
	}
}

func TestDependencyLabel(t *testing.T) {
	assert.Equal(t, "Acme/Widgets", Dependency{Name: "Widgets", Publisher: "Acme"}.Label())
	assert.Equal(t, "Widgets", Dependency{Name: "Widgets"}.Label())
}

func TestResolutionResultCounters(t *testing.T) {
	result := &ResolutionResult{
		Artifacts: []ArtifactFile{
			{Name: "Microsoft.Application.symbols.app", Size: 2048},
			{Name: "Acme_Widgets_github.app", Size: 4096},
			{Name: "Acme_Tools_github_placeholder.app", Size: 150, Placeholder: true},
		},
		CoreSymbols: []CoreSymbolStatus{
			{Label: "System", Present: true},
			{Label: "Base Application", Present: false},
			{Label: "Application", Present: true},
		},
	}

	assert.Equal(t, 3, result.ArtifactCount())
	assert.Equal(t, 1, result.PlaceholderCount())
	assert.Equal(t, []string{"Base Application"}, result.MissingCoreSymbols())
}

func TestFeedDescriptorResolved(t *testing.T) {
	feed := &FeedDescriptor{Name: "MSSymbols", IndexURL: "https://example.test/index.json"}
	assert.False(t, feed.Resolved())

	feed.SearchURL = "https://example.test/query"
	assert.False(t, feed.Resolved())

	feed.PackageBaseURL = "https://example.test/flat2"
	assert.True(t, feed.Resolved())
}
