package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestCurrentTrims(t *testing.T) {
	orig, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = orig, origCommit }()

	Version, GitCommit = "  ", " abc123 "
	info := Current()
	if info.Version != "dev" || info.GitCommit != "abc123" {
		t.Fatalf("info = %+v", info)
	}
}

func TestPretty(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	tests := []struct{ in, want string }{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"dev", "dev"},
	}
	for _, tt := range tests {
		if got := Pretty(tt.in); got != tt.want {
			t.Errorf("Pretty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
