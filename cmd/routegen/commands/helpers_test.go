// ABOUTME: Shared fixtures for CLI command tests
// ABOUTME: Builds a temp site with an origin tree and a route manifest

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const testManifest = `routes:
  - path: about/page.tsx
    type: page
    localizedPaths:
      en: en/about/page.tsx
      fr: fr/a-propos/page.tsx
  - path: logo.png
    type: copy
    localizedPaths:
      en: en/logo.png
      fr: fr/logo.png
`

type testSite struct {
	originDir    string
	localizedDir string
	manifest     string
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	// Blank values fall back to defaults: the file backend next to the localized dir
	for _, key := range []string{"ROUTEGEN_STATE_BACKEND", "ROUTEGEN_STATE_FILE", "ROUTEGEN_TEMPLATE_DIR", "ROUTEGEN_WATCH_DEBOUNCE_MS"} {
		t.Setenv(key, "")
	}

	root := t.TempDir()
	site := &testSite{
		originDir:    filepath.Join(root, "_app"),
		localizedDir: filepath.Join(root, "app"),
		manifest:     filepath.Join(root, "routes.yaml"),
	}

	files := map[string]string{
		filepath.Join(site.originDir, "about", "page.tsx"): "export default function About() {}\n",
		filepath.Join(site.originDir, "logo.png"):          "PNG",
		site.manifest: testManifest,
	}
	for path, content := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return site
}

func (s *testSite) args(sub ...string) []string {
	return append(sub,
		"--origin-dir", s.originDir,
		"--localized-dir", s.localizedDir,
		"--locales", "en,fr",
		"--manifest", s.manifest,
	)
}

// dropLogoRoute rewrites the manifest without the logo.png route
func (s *testSite) dropLogoRoute(t *testing.T) {
	t.Helper()
	manifest := `routes:
  - path: about/page.tsx
    type: page
    localizedPaths:
      en: en/about/page.tsx
      fr: fr/a-propos/page.tsx
`
	if err := os.WriteFile(s.manifest, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (s *testSite) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.localizedDir, filepath.FromSlash(rel)))
	return err == nil
}

// runCLI executes the root command and returns its stdout
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}
