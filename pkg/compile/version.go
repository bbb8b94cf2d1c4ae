package compile

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/lincza/albuild/pkg/errors"
)

// Mode selects how build versions are generated.
type Mode string

const (
	// ModeRelease produces a dated, monotonically growing build version.
	ModeRelease Mode = "release"
	// ModeTest produces the fixed 0.0.0.0 version used for throwaway builds.
	ModeTest Mode = "test"
)

// TestVersion is the build version of every test-mode compilation.
const TestVersion = "0.0.0.0"

// versionEpoch anchors the build-day counter.
var versionEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// BuildVersion generates the version a build is stamped with:
// {platform major}.{two-digit year}.{days since 2020-01-01}.{minutes since
// midnight}. The scheme keeps versions ordered across daily builds without
// any stored counter. Test builds always get TestVersion.
func BuildVersion(mode Mode, platformVersion string, now time.Time) (string, error) {
	if mode == ModeTest {
		return TestVersion, nil
	}

	v, err := version.NewVersion(platformVersion)
	if err != nil {
		return "", errors.Wrapf(err, "invalid platform version %q", platformVersion)
	}

	now = now.UTC()
	days := int(now.Sub(versionEpoch).Hours() / 24)
	minutes := now.Hour()*60 + now.Minute()
	return fmt.Sprintf("%d.%s.%d.%d", v.Segments()[0], now.Format("06"), days, minutes), nil
}

// OutputFilename returns the artifact name a build produces. The commit short
// hash keeps parallel builds of the same version apart; without one a fixed
// zero hash is used.
func OutputFilename(cleanName, buildVersion, commit string) string {
	if commit == "" {
		commit = "0000000"
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s_%s_%s.app", cleanName, buildVersion, commit)
}

// versionManifests maps a platform major version to the alternate manifest
// checked in next to app.json for that generation.
var versionManifests = map[int]string{
	17: "bc17_app.json",
	18: "bc18_app.json",
	19: "bc19_app.json",
	22: "bc22_app.json",
}

// cloudManifest is used when no generation-specific manifest applies.
const cloudManifest = "cloud_app.json"

// alternateManifest returns the name of the version-specific manifest for a
// platform version, or the cloud manifest when the generation has none.
func alternateManifest(platformVersion string) string {
	v, err := version.NewVersion(strings.TrimSpace(platformVersion))
	if err != nil {
		return cloudManifest
	}
	if name, ok := versionManifests[v.Segments()[0]]; ok {
		return name
	}
	return cloudManifest
}
