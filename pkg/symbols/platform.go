package symbols

import (
	"github.com/hashicorp/go-version"
	"github.com/lincza/albuild/pkg/errors"
)

// businessFoundationMinMajor is the first platform generation that ships the
// Business Foundation layer as its own symbol package.
const businessFoundationMinMajor = 24

// CoreSymbolLabels are matched as substrings against artifact filenames when
// summarizing a run. Compilation needs all of them present.
var CoreSymbolLabels = []string{"System", "Base Application", "Application"}

// PlatformPackage is one core platform symbol package to search for.
type PlatformPackage struct {
	// Pattern is the feed search term, e.g. "baseapplication.symbols".
	Pattern string
	// Description names the package in logs and events.
	Description string
}

// PlatformPackages returns the platform symbol packages for the given
// platform version. Versions 24 and later include Business Foundation.
func PlatformPackages(platformVersion string) ([]PlatformPackage, error) {
	v, err := version.NewVersion(platformVersion)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid platform version %q", platformVersion)
	}

	packages := []PlatformPackage{
		{Pattern: "application.symbols", Description: "Application symbols"},
		{Pattern: "baseapplication.symbols", Description: "Base Application symbols"},
		{Pattern: "systemapplication.symbols", Description: "System Application symbols"},
		{Pattern: "platform.symbols", Description: "Platform symbols"},
	}
	if v.Segments()[0] >= businessFoundationMinMajor {
		packages = append(packages, PlatformPackage{
			Pattern:     "businessfoundation.symbols",
			Description: "Business Foundation symbols",
		})
	}
	return packages, nil
}
