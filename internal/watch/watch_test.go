// ABOUTME: Tests for watch mode
// ABOUTME: Drives real file events through a recording passer and a live runner

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harper/routegen/internal/config"
	"github.com/harper/routegen/internal/core"
	"github.com/harper/routegen/internal/runner"
	"github.com/harper/routegen/internal/storage"
)

const waitTimeout = 5 * time.Second

// recordingPasser reports the updated path of every pass
type recordingPasser struct {
	calls chan string
}

func (p *recordingPasser) Generate(ctx context.Context, manifestPath, updated string) (*core.PassReport, error) {
	p.calls <- updated
	return &core.PassReport{UpdatedOriginPath: updated}, nil
}

type watchSite struct {
	root     string
	origin   string
	manifest string
}

func newWatchSite(t *testing.T) *watchSite {
	t.Helper()
	root := t.TempDir()
	s := &watchSite{
		root:     root,
		origin:   filepath.Join(root, "_app"),
		manifest: filepath.Join(root, "routes.yaml"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(s.origin, "about"), 0o755))
	s.write(t, filepath.Join(s.origin, "about", "page.tsx"), "export default 1\n")
	s.write(t, filepath.Join(s.origin, "logo.png"), "PNG")
	s.write(t, s.manifest, "routes: []\n")
	return s
}

func (s *watchSite) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// startWatcher runs w until the test ends
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func nextCall(t *testing.T, calls <-chan string) string {
	t.Helper()
	select {
	case c := <-calls:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a pass")
		return ""
	}
}

func newRecordingWatcher(t *testing.T, s *watchSite) (*Watcher, *recordingPasser) {
	t.Helper()
	p := &recordingPasser{calls: make(chan string, 32)}
	w, err := New(p, Options{OriginDir: s.origin, ManifestPath: s.manifest, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	startWatcher(t, w)
	return w, p
}

func TestWatcher_OriginChangeRunsScopedPass(t *testing.T) {
	s := newWatchSite(t)
	_, p := newRecordingWatcher(t, s)

	page := filepath.Join(s.origin, "about", "page.tsx")
	s.write(t, page, "export default 2\n")
	s.write(t, page, "export default 3\n")

	require.Equal(t, page, nextCall(t, p.calls))

	// Both writes landed in one debounce window
	select {
	case extra := <-p.calls:
		t.Fatalf("unexpected second pass for %s", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ManifestChangeRunsPass(t *testing.T) {
	s := newWatchSite(t)
	_, p := newRecordingWatcher(t, s)

	s.write(t, s.manifest, "routes: []\n# edited\n")
	require.Equal(t, s.manifest, nextCall(t, p.calls))
}

func TestWatcher_IgnoresFilesOutsideOrigin(t *testing.T) {
	s := newWatchSite(t)
	_, p := newRecordingWatcher(t, s)

	s.write(t, filepath.Join(s.root, "README.md"), "hi")

	select {
	case c := <-p.calls:
		t.Fatalf("unexpected pass for %s", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	s := newWatchSite(t)
	_, p := newRecordingWatcher(t, s)

	post := filepath.Join(s.origin, "blog", "post1.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(post), 0o755))
	s.write(t, post, "# Post")

	require.Equal(t, post, nextCall(t, p.calls))
}

func TestNew_MissingOrigin(t *testing.T) {
	s := newWatchSite(t)
	_, err := New(&recordingPasser{}, Options{OriginDir: filepath.Join(s.root, "missing"), ManifestPath: s.manifest})
	require.Error(t, err)
}

func TestWatcher_DrivesRunnerIncrementally(t *testing.T) {
	s := newWatchSite(t)
	s.write(t, s.manifest, `routes:
  - path: about/page.tsx
    type: page
    localizedPaths: {en: en/about/page.tsx}
  - path: logo.png
    type: copy
    localizedPaths: {en: en/logo.png}
`)
	cfg := &config.Config{
		OriginDir:         s.origin,
		LocalizedDir:      filepath.Join(s.root, "app"),
		Locales:           []string{"en"},
		ManifestPath:      s.manifest,
		TemplateCacheSize: 4,
		StateBackend:      config.BackendMemory,
	}
	r, err := runner.New(cfg, storage.NewMemoryStore())
	require.NoError(t, err)
	_, err = r.Generate(context.Background(), "", "")
	require.NoError(t, err)

	type result struct {
		report *core.PassReport
		err    error
	}
	results := make(chan result, 8)
	w, err := New(r, Options{
		OriginDir:    s.origin,
		ManifestPath: s.manifest,
		Debounce:     50 * time.Millisecond,
		OnPass: func(report *core.PassReport, err error) {
			results <- result{report, err}
		},
	})
	require.NoError(t, err)
	startWatcher(t, w)

	next := func() *core.PassReport {
		select {
		case res := <-results:
			require.NoError(t, res.err)
			return res.report
		case <-time.After(waitTimeout):
			t.Fatal("timed out waiting for a pass")
			return nil
		}
	}

	// Dropping a route from the manifest sweeps its output
	s.write(t, s.manifest, `routes:
  - path: about/page.tsx
    type: page
    localizedPaths: {en: en/about/page.tsx}
`)
	report := next()
	require.Equal(t, []string{"en/logo.png"}, report.RemovedPaths)
	require.Empty(t, report.Written)
	_, err = os.Stat(filepath.Join(cfg.LocalizedDir, "en", "logo.png"))
	require.True(t, os.IsNotExist(err))

	// Editing an origin file rewrites only that route
	s.write(t, filepath.Join(s.origin, "about", "page.tsx"), "export default 2\n")
	report = next()
	require.Equal(t, "about/page.tsx", report.UpdatedOriginPath)
	require.Equal(t, []core.WrittenFile{{Origin: "about/page.tsx", Locale: "en", Path: "en/about/page.tsx"}}, report.Written)
}
