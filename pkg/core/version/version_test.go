package version

import (
	"regexp"
	"testing"
)

var semverRegex = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

func TestVersionConstants(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"App", App},
		{"Capture", Capture},
		{"Recognition", Recognition},
		{"Binder", Binder},
		{"Storage", Storage},
		{"Form", Form},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !semverRegex.MatchString(tt.version) {
				t.Errorf("%s version %q does not match semver format (x.y.z)", tt.name, tt.version)
			}
		})
	}
}

func TestComponentVersion(t *testing.T) {
	tests := []struct {
		component string
		expected  string
	}{
		{"capture", Capture},
		{"recognition", Recognition},
		{"binder", Binder},
		{"storage", Storage},
		{"form", Form},
		{"unknown", App},
		{"", App},
	}

	for _, tt := range tests {
		t.Run(tt.component, func(t *testing.T) {
			if got := ComponentVersion(tt.component); got != tt.expected {
				t.Errorf("ComponentVersion(%q) = %q, want %q", tt.component, got, tt.expected)
			}
		})
	}
}

func TestComponentsHaveVersions(t *testing.T) {
	for _, c := range Components {
		if ComponentVersion(c) == "" {
			t.Errorf("component %q has no version", c)
		}
	}
}
