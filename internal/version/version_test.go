// ABOUTME: Tests for version constants
// ABOUTME: Checks the constants are filled in and the version is dotted numeric
package version

import (
	"strconv"
	"strings"
	"testing"
)

func TestConstantsDefined(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Version", Version},
		{"Product", Product},
		{"Manufacturer", Manufacturer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Fatalf("%s should not be empty", tt.name)
			}
			if len(tt.value) > 100 {
				t.Errorf("%s is unreasonably long: %d", tt.name, len(tt.value))
			}
			for _, placeholder := range []string{"TODO", "FIXME", "XXX", "placeholder"} {
				if tt.value == placeholder {
					t.Errorf("%s should not be placeholder value: %s", tt.name, placeholder)
				}
			}
		})
	}
}

func TestVersionIsDottedNumeric(t *testing.T) {
	parts := strings.Split(Version, ".")
	if len(parts) != 3 {
		t.Fatalf("expected major.minor.patch, got %q", Version)
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			t.Errorf("expected numeric version component, got %q in %q", p, Version)
		}
	}
}

func TestString(t *testing.T) {
	if got, want := String(), "Echo 0.3.0"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
