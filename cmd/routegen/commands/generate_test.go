// ABOUTME: Tests for the generate command
// ABOUTME: Runs full passes, dry runs, and failure cases against a temp site

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/routegen/internal/core"
)

func TestGenerateCmd_Flags(t *testing.T) {
	cmd := NewGenerateCmd()

	for _, name := range []string{"origin-dir", "localized-dir", "locales", "manifest", "state", "updated", "dry-run", "watch"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
}

func TestGenerateCmd_WritesTree(t *testing.T) {
	site := newTestSite(t)

	out, err := runCLI(t, append([]string{"--format", "json"}, site.args("generate")...)...)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	var report core.PassReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not a JSON report: %v\n%s", err, out)
	}
	if len(report.Written) != 4 {
		t.Errorf("written = %d, want 4", len(report.Written))
	}
	if report.PassID == "" {
		t.Error("report should carry a pass id")
	}

	for _, rel := range []string{"en/about/page.tsx", "fr/a-propos/page.tsx", "en/logo.png", "fr/logo.png"} {
		if !site.exists(rel) {
			t.Errorf("%s was not written", rel)
		}
	}

	logo, err := os.ReadFile(filepath.Join(site.localizedDir, "fr", "logo.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(logo) != "PNG" {
		t.Errorf("copied asset = %q, want %q", logo, "PNG")
	}

	page, err := os.ReadFile(filepath.Join(site.localizedDir, "en", "about", "page.tsx"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "../../_app/about/page") {
		t.Errorf("rendered page should import its origin, got:\n%s", page)
	}
}

func TestGenerateCmd_TextOutput(t *testing.T) {
	site := newTestSite(t)

	out, err := runCLI(t, append([]string{"--format", "text"}, site.args("generate")...)...)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	for _, want := range []string{"Written (4):", "4 written, 0 removed, 0 skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateCmd_DryRun(t *testing.T) {
	site := newTestSite(t)

	out, err := runCLI(t, append([]string{"--format", "text"}, site.args("generate", "--dry-run")...)...)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	if !strings.Contains(out, "(dry run)") || !strings.Contains(out, "Would write (4):") {
		t.Errorf("unexpected dry run output:\n%s", out)
	}
	if _, err := os.Stat(site.localizedDir); !os.IsNotExist(err) {
		t.Error("dry run should not create the localized tree")
	}
}

func TestGenerateCmd_Errors(t *testing.T) {
	tests := []struct {
		name  string
		extra []string
	}{
		{"missing manifest", []string{"--manifest", "/does/not/exist.yaml"}},
		{"unknown backend", []string{"--state", "redis"}},
		{"uncovered locale", []string{"--locales", "en,fr,de"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := newTestSite(t)
			args := append(site.args("generate"), tt.extra...)

			if _, err := runCLI(t, args...); err == nil {
				t.Error("expected an error")
			}
			if _, err := os.Stat(site.localizedDir); !os.IsNotExist(err) {
				t.Error("a rejected run should not touch the localized tree")
			}
		})
	}
}

func TestGenerateCmd_MissingOriginFileFails(t *testing.T) {
	site := newTestSite(t)
	if err := os.Remove(filepath.Join(site.originDir, "logo.png")); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, append([]string{"--format", "text"}, site.args("generate")...)...)
	if err == nil {
		t.Fatal("expected the copy failure to surface")
	}
	if !strings.Contains(err.Error(), "logo.png") {
		t.Errorf("error should name the failing file: %v", err)
	}
}

func runReport(t *testing.T, args ...string) core.PassReport {
	t.Helper()
	out, err := runCLI(t, append([]string{"--format", "json"}, args...)...)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	var report core.PassReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not a JSON report: %v\n%s", err, out)
	}
	return report
}

func TestGenerateCmd_DefaultBackendKeepsSnapshotBetweenRuns(t *testing.T) {
	site := newTestSite(t)

	first := runReport(t, site.args("generate")...)
	if len(first.Written) != 4 {
		t.Fatalf("first run wrote %d files, want 4", len(first.Written))
	}
	snapshot := filepath.Join(filepath.Dir(site.localizedDir), ".routegen", "snapshot.json")
	if _, err := os.Stat(snapshot); err != nil {
		t.Fatalf("snapshot file not saved: %v", err)
	}

	// Removing a route between runs sweeps its outputs
	site.dropLogoRoute(t)
	second := runReport(t, site.args("generate")...)

	if got := strings.Join(second.RemovedPaths, ","); got != "en/logo.png,fr/logo.png" {
		t.Errorf("removedPaths = %q, want en/logo.png,fr/logo.png", got)
	}
	if len(second.NewPaths) != 0 {
		t.Errorf("newPaths = %v, want none", second.NewPaths)
	}
	for _, rel := range []string{"en/logo.png", "fr/logo.png"} {
		if site.exists(rel) {
			t.Errorf("%s should have been swept", rel)
		}
	}

	// --updated narrows a later run to one route
	third := runReport(t, site.args("generate", "--updated", "about/page.tsx")...)
	if len(third.Written) != 2 {
		t.Fatalf("updated run wrote %d files, want 2", len(third.Written))
	}
	for _, f := range third.Written {
		if f.Origin != "about/page.tsx" {
			t.Errorf("updated run rewrote %s", f.Origin)
		}
	}

	unrelated := runReport(t, site.args("generate", "--updated", "contact/page.tsx")...)
	if len(unrelated.Written) != 0 {
		t.Errorf("unrelated update wrote %d files, want 0", len(unrelated.Written))
	}
}

func TestGenerateCmd_WatchExcludesDryRun(t *testing.T) {
	site := newTestSite(t)

	if _, err := runCLI(t, site.args("generate", "--watch", "--dry-run")...); err == nil {
		t.Error("expected --watch and --dry-run to be rejected together")
	}
}

func TestGenerateCmd_WatchSweepsOnManifestEdit(t *testing.T) {
	site := newTestSite(t)
	t.Setenv("ROUTEGEN_WATCH_DEBOUNCE_MS", "20")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--format", "text"}, site.args("generate", "--watch")...))

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	waitFor(t, "initial pass", func() bool { return site.exists("fr/logo.png") }, nil)

	// Edits may land before the watcher is up, so keep touching the manifest
	waitFor(t, "logo sweep", func() bool {
		return !site.exists("en/logo.png") && !site.exists("fr/logo.png")
	}, func() { site.dropLogoRoute(t) })

	if !site.exists("en/about/page.tsx") {
		t.Error("remaining route output should be kept")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch exited with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}

	if !strings.Contains(stdout.String(), "Removed (2):") {
		t.Errorf("watch output should report the sweep, got:\n%s", stdout.String())
	}
}

// waitFor polls cond, calling poke between attempts, until it holds or times out
func waitFor(t *testing.T, what string, cond func() bool, poke func()) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		if poke != nil {
			poke()
		}
		time.Sleep(50 * time.Millisecond)
	}
}
