// Package model provides data structures and types for representing manifests,
// dependencies, symbol feeds and resolution results in the albuild toolkit.
package model

import "strings"

// MicrosoftPublisher is the publisher name of first-party platform packages.
const MicrosoftPublisher = "Microsoft"

// Dependency represents one entry from the manifest's dependency list.
type Dependency struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
	Version   string `json:"version,omitempty"`
}

// IsMicrosoft reports whether the dependency is published by Microsoft.
// Microsoft dependencies ship with the platform symbol packages and are never
// looked up individually.
func (d Dependency) IsMicrosoft() bool {
	return strings.EqualFold(d.Publisher, MicrosoftPublisher)
}

// Label returns a short human-readable identifier for log lines.
func (d Dependency) Label() string {
	if d.Publisher == "" {
		return d.Name
	}
	return d.Publisher + "/" + d.Name
}
