package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origV, origC, origD, origNo := Version, GitCommit, BuildDate, color.NoColor
	Version, GitCommit, BuildDate, color.NoColor = v, commit, date, true
	t.Cleanup(func() {
		Version, GitCommit, BuildDate, color.NoColor = origV, origC, origD, origNo
	})
}

func TestString(t *testing.T) {
	cases := []struct {
		version, commit, date string
		want                  string
	}{
		{"1.2.3", "", "", "dslgen 1.2.3"},
		{"0.1.0-dev", "abc123", "", "dslgen 0.1.0-dev (abc123)"},
		{"1.0.0", "abc123", "2026-01-15", "dslgen 1.0.0 (abc123) built 2026-01-15"},
		{"snapshot", "", "", "dslgen snapshot"},
	}
	for _, c := range cases {
		withVersion(t, c.version, c.commit, c.date)
		if got := String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestDefaultVersionIsSet(t *testing.T) {
	if Version == "" {
		t.Fatal("Version should have a default value")
	}
}
