package model

// FeedDescriptor identifies one NuGet v3 symbol feed. SearchURL and
// PackageBaseURL stay empty until the feed's service index has been resolved.
type FeedDescriptor struct {
	Name           string `yaml:"name"`
	IndexURL       string `yaml:"url"`
	SearchURL      string `yaml:"-"`
	PackageBaseURL string `yaml:"-"`
}

// Resolved reports whether the feed's endpoints have been discovered.
func (f *FeedDescriptor) Resolved() bool {
	return f.SearchURL != "" && f.PackageBaseURL != ""
}

// CandidatePackage is a concrete package located on a feed: the exact ID and
// version to download.
type CandidatePackage struct {
	ID      string
	Version string
	Feed    *FeedDescriptor
}
