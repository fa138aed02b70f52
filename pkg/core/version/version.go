// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     version
// Description: Central version management for the intake components
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

// Version constants for the intake application and its components
const (
	// Application version
	App = "1.0.0"

	// Component versions
	Capture     = "1.0.0"
	Recognition = "1.0.0"
	Binder      = "1.0.0"
	Storage     = "1.0.0"
	Form        = "1.0.0"
)

// Set by the linker (-ldflags "-X .../version.GitCommit=...")
var (
	GitCommit = "development"
	BuildDate = "unknown"
)

// Components lists the component names in display order
var Components = []string{"capture", "recognition", "binder", "storage", "form"}

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "capture":
		return Capture
	case "recognition":
		return Recognition
	case "binder":
		return Binder
	case "storage":
		return Storage
	case "form":
		return Form
	default:
		return App
	}
}
