package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withVars(t *testing.T, version, commit, date string) {
	t.Helper()
	v, c, d := Version, Commit, Date
	Version, Commit, Date = version, commit, date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })
}

func TestFill(t *testing.T) {
	withVars(t, "dev", "none", "unknown")

	fill(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	})

	if Version != "v0.3.1" || Commit != "0123456789abcdef" || Date != "2026-01-02T03:04:05Z" {
		t.Errorf("fill() = %s %s %s", Version, Commit, Date)
	}
}

func TestFillDevelBuild(t *testing.T) {
	withVars(t, "dev", "none", "unknown")
	fill(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if Version != "dev" {
		t.Errorf("Version = %q, want dev", Version)
	}
}

func TestShort(t *testing.T) {
	withVars(t, "v1.0.0", "abcdef0123", "today")
	if got := Short(); got != "v1.0.0 (abcdef0)" {
		t.Errorf("Short() = %q", got)
	}

	withVars(t, "dev", "none", "unknown")
	if got := Short(); got != "dev" {
		t.Errorf("Short() = %q", got)
	}
}

func TestTemplate(t *testing.T) {
	withVars(t, "v1.0.0", "abc", "today")
	if !strings.Contains(Template(), "version v1.0.0") {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.Contains(String(), "commit: abc") {
		t.Errorf("String() = %q", String())
	}
}
