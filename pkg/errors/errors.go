package errors

import "fmt"

// Common error types.
var (
	// Feed errors.
	ErrFeedUnavailable  = fmt.Errorf("symbol feed unavailable")
	ErrEndpointNotFound = fmt.Errorf("feed endpoint not found")
	ErrNotFound         = fmt.Errorf("package not found")

	// Fetch errors.
	ErrDownloadFailed      = fmt.Errorf("download failed")
	ErrCorruptArchive      = fmt.Errorf("corrupt package archive")
	ErrNoArtifactInPackage = fmt.Errorf("no extension artifact in package")
	ErrInvalidPath         = fmt.Errorf("invalid path")

	// Fallback errors.
	ErrAuthenticationRequired = fmt.Errorf("authentication required")
	ErrNotApplicable          = fmt.Errorf("fallback not applicable")

	// Resolution errors.
	ErrNoSymbols = fmt.Errorf("no symbols resolved")

	// Manifest errors.
	ErrManifestMissing = fmt.Errorf("app.json not found")
	ErrManifestInvalid = fmt.Errorf("invalid app.json")

	// Config errors.
	ErrEmptyConfigPath  = fmt.Errorf("config file path cannot be empty")
	ErrConfigParse      = fmt.Errorf("failed to parse config")
	ErrConfigValidation = fmt.Errorf("invalid configuration")

	// Tooling errors.
	ErrCompilerNotFound   = fmt.Errorf("AL compiler not found")
	ErrCompileFailed      = fmt.Errorf("compilation failed")
	ErrSignToolNotFound   = fmt.Errorf("no signing tool available")
	ErrSignFailed         = fmt.Errorf("signing failed")
	ErrNotSignable        = fmt.Errorf("file is not a compiled extension artifact")
	ErrPowerShellNotFound = fmt.Errorf("PowerShell not found")
	ErrPublishFailed      = fmt.Errorf("publish failed")
	ErrNotPublishable     = fmt.Errorf("project is not AppSource eligible")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// ErrFeedUnavailableWithName returns ErrFeedUnavailable annotated with the feed name.
func ErrFeedUnavailableWithName(name string) error {
	return fmt.Errorf("feed %s: %w", name, ErrFeedUnavailable)
}

// ErrEndpointNotFoundWithType returns ErrEndpointNotFound annotated with the missing resource type.
func ErrEndpointNotFoundWithType(feed, resourceType string) error {
	return fmt.Errorf("feed %s has no %s resource: %w", feed, resourceType, ErrEndpointNotFound)
}

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
