// ABOUTME: Shared fixtures for core tests
// ABOUTME: Provides a recording template source and temp origin/localized trees

package core

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/harper/routegen/internal/models"
	"github.com/harper/routegen/internal/templates"
)

// recordingTemplates renders "Type|RelativePath|Locale" and remembers every call
type recordingTemplates struct {
	resolved []string
	rendered []templates.Params
}

func (r *recordingTemplates) Compiler(route models.OriginRoute) (templates.Compiler, error) {
	r.resolved = append(r.resolved, route.Path)
	return func(p templates.Params) (string, error) {
		r.rendered = append(r.rendered, p)
		return fmt.Sprintf("%s|%s|%s", p.RouteType, p.RelativePath, p.Locale), nil
	}, nil
}

type fixture struct {
	originDir    string
	localizedDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		originDir:    filepath.Join(root, "_app"),
		localizedDir: filepath.Join(root, "app"),
	}
	if err := os.MkdirAll(f.originDir, 0o755); err != nil {
		t.Fatalf("creating origin dir: %v", err)
	}
	if err := os.MkdirAll(f.localizedDir, 0o755); err != nil {
		t.Fatalf("creating localized dir: %v", err)
	}
	return f
}

// origin writes an origin file and returns its path
func (f fixture) origin(t *testing.T, rel, contents string) string {
	t.Helper()
	p := filepath.Join(f.originDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("creating origin parent: %v", err)
	}
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing origin file: %v", err)
	}
	return p
}

// localized writes a file under the localized root and returns its path
func (f fixture) localized(t *testing.T, rel, contents string) string {
	t.Helper()
	p := filepath.Join(f.localizedDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("creating localized parent: %v", err)
	}
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing localized file: %v", err)
	}
	return p
}

func (f fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.localizedDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

func (f fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.localizedDir, filepath.FromSlash(rel)))
	return err == nil
}
