package version_test

import (
	"strings"
	"testing"

	"github.com/detkit/detconf/internal/version"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	if version.Version == "" {
		t.Error("Version is empty")
	}
	if version.Commit == "" {
		t.Error("Commit is empty")
	}
	if version.BuildDate == "" {
		t.Error("BuildDate is empty")
	}
}

func TestString(t *testing.T) {
	got := version.String()
	if !strings.Contains(got, version.Version) {
		t.Errorf("String() = %q, missing version", got)
	}
	if !strings.Contains(got, version.Commit) {
		t.Errorf("String() = %q, missing commit", got)
	}
}
