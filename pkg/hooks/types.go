// Package hooks runs project-provided Tengo scripts at pipeline phase
// boundaries.
package hooks

import "time"

// Type names a pipeline phase boundary a script can attach to.
type Type string

// Supported hook types, matching the script filenames under the project's
// hook directory (e.g. pre-build.tengo).
const (
	PreSymbols  Type = "pre-symbols"
	PostSymbols Type = "post-symbols"
	PreBuild    Type = "pre-build"
	PostBuild   Type = "post-build"
	PreSign     Type = "pre-sign"
	PostSign    Type = "post-sign"
	PrePublish  Type = "pre-publish"
	PostPublish Type = "post-publish"
)

// knownTypes gates which script filenames are loaded.
var knownTypes = map[Type]bool{
	PreSymbols:  true,
	PostSymbols: true,
	PreBuild:    true,
	PostBuild:   true,
	PreSign:     true,
	PostSign:    true,
	PrePublish:  true,
	PostPublish: true,
}

// DefaultTimeout bounds one script execution.
const DefaultTimeout = 30 * time.Second

// Hook is one loaded script.
type Hook struct {
	Type   Type
	Script string
}

// Context carries the pipeline state into a script.
type Context struct {
	ProjectName string
	Version     string
	AppFile     string // empty before a build exists
	Phase       string
	Vars        map[string]interface{}
}
