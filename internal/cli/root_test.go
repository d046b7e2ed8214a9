package cli

import (
	"testing"

	"github.com/matzehuels/promptree/pkg/buildinfo"
)

func TestSetVersion(t *testing.T) {
	oldV, oldC, oldD := buildinfo.Version, buildinfo.Commit, buildinfo.Date
	defer func() { buildinfo.Version, buildinfo.Commit, buildinfo.Date = oldV, oldC, oldD }()

	SetVersion("1.0.0", "abc123", "2024-01-01")

	if buildinfo.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", buildinfo.Version, "1.0.0")
	}
	if buildinfo.Commit != "abc123" {
		t.Errorf("Commit = %q, want %q", buildinfo.Commit, "abc123")
	}
	if buildinfo.Date != "2024-01-01" {
		t.Errorf("Date = %q, want %q", buildinfo.Date, "2024-01-01")
	}
}

func TestSetVersionEmpty(t *testing.T) {
	oldV, oldC, oldD := buildinfo.Version, buildinfo.Commit, buildinfo.Date
	defer func() { buildinfo.Version, buildinfo.Commit, buildinfo.Date = oldV, oldC, oldD }()

	buildinfo.Version = "dev"
	SetVersion("", "", "")

	if buildinfo.Version != "dev" {
		t.Errorf("empty SetVersion should keep Version, got %q", buildinfo.Version)
	}
}
