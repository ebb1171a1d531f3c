// ABOUTME: Watch mode feeding file-change events into generation passes
// ABOUTME: Coalesces fsnotify events and runs one pass per changed file, in series
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	logging "github.com/ipfs/go-log/v2"

	"github.com/harper/routegen/internal/core"
)

var log = logging.Logger("routegen/watch")

// Passer runs one generation pass. manifestPath may be empty for the
// configured manifest; updated names the changed file.
type Passer interface {
	Generate(ctx context.Context, manifestPath, updated string) (*core.PassReport, error)
}

// Options configures a Watcher
type Options struct {
	OriginDir    string
	ManifestPath string
	// Debounce is how long events are collected before passes run
	Debounce time.Duration
	// OnPass, when set, receives the result of every pass
	OnPass func(report *core.PassReport, err error)
}

// Watcher turns changes under the origin tree and to the manifest into passes
type Watcher struct {
	passer   Passer
	fs       *fsnotify.Watcher
	origin   string
	manifest string
	debounce time.Duration
	onPass   func(*core.PassReport, error)
}

// New starts watching the origin tree and the manifest's directory. Events
// are queued until Run is called; Run closes the watcher when it returns.
func New(passer Passer, opts Options) (*Watcher, error) {
	origin, err := filepath.Abs(opts.OriginDir)
	if err != nil {
		return nil, fmt.Errorf("resolving origin dir: %w", err)
	}
	manifest, err := filepath.Abs(opts.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("resolving manifest: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		passer:   passer,
		fs:       fw,
		origin:   origin,
		manifest: manifest,
		debounce: opts.Debounce,
		onPass:   opts.OnPass,
	}

	if _, err := w.addTree(origin); err != nil {
		fw.Close()
		return nil, err
	}
	// Editors often replace files, so the directory is watched rather than the file
	if err := fw.Add(filepath.Dir(manifest)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching manifest dir: %w", err)
	}
	return w, nil
}

// Close stops watching without running pending passes
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run processes events until ctx is done. Passes run one at a time on the
// caller's goroutine. A failed pass is reported through OnPass and the
// watcher keeps going.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var (
		pending         = map[string]bool{}
		manifestChanged bool
		fire            <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.queue(ev, pending, &manifestChanged) && fire == nil {
				fire = time.After(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warnw("file watcher error", "error", err)

		case <-fire:
			fire = nil
			w.flush(ctx, pending, manifestChanged)
			pending = map[string]bool{}
			manifestChanged = false
		}
	}
}

// queue records ev and reports whether it needs a pass
func (w *Watcher) queue(ev fsnotify.Event, pending map[string]bool, manifestChanged *bool) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}

	if ev.Name == w.manifest {
		*manifestChanged = true
		return true
	}

	if !w.underOrigin(ev.Name) {
		return false
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		// Gone again before we looked
		return false
	}

	if info.IsDir() {
		// Files created before the new directory was watched are picked up by the walk
		files, err := w.addTree(ev.Name)
		if err != nil {
			log.Warnw("failed to watch new directory", "dir", ev.Name, "error", err)
		}
		for _, f := range files {
			pending[f] = true
		}
		return len(files) > 0
	}

	if !info.Mode().IsRegular() {
		return false
	}
	pending[ev.Name] = true
	return true
}

// flush runs the queued passes. A manifest change runs first with the
// manifest as the updated path, which matches no origin route, so only new
// localized paths are written and removed ones swept.
func (w *Watcher) flush(ctx context.Context, pending map[string]bool, manifestChanged bool) {
	if manifestChanged {
		w.pass(ctx, w.manifest)
	}

	files := make([]string, 0, len(pending))
	for f := range pending {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, f := range files {
		if ctx.Err() != nil {
			return
		}
		w.pass(ctx, f)
	}
}

func (w *Watcher) pass(ctx context.Context, updated string) {
	log.Debugw("change detected", "path", updated)

	report, err := w.passer.Generate(ctx, w.manifest, updated)
	if err != nil {
		log.Warnw("pass failed", "path", updated, "error", err)
	}
	if w.onPass != nil {
		w.onPass(report, err)
	}
}

// addTree watches dir and every directory below it, returning the regular
// files found
func (w *Watcher) addTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fs.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (w *Watcher) underOrigin(path string) bool {
	rel, err := filepath.Rel(w.origin, path)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
