// ABOUTME: Runner wiring config, manifest, templates, and snapshot storage into passes
// ABOUTME: Shared by the CLI commands and the MCP tool handlers
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/harper/routegen/internal/config"
	"github.com/harper/routegen/internal/core"
	"github.com/harper/routegen/internal/manifest"
	"github.com/harper/routegen/internal/models"
	"github.com/harper/routegen/internal/storage"
	"github.com/harper/routegen/internal/templates"
)

var log = logging.Logger("routegen/runner")

// Runner drives passes for one origin/localized tree pair. Passes must be
// serialized by the caller.
type Runner struct {
	cfg       *config.Config
	store     storage.SnapshotStore
	tree      string
	generator *core.Generator
}

// New builds a runner, seeding its state from the snapshot stored for the localized tree
func New(cfg *config.Config, store storage.SnapshotStore) (*Runner, error) {
	registry, err := templates.NewRegistry(cfg.TemplateDir, cfg.TemplateCacheSize)
	if err != nil {
		return nil, err
	}

	tree, err := storage.TreeKey(cfg.LocalizedDir)
	if err != nil {
		return nil, err
	}

	previous, err := store.Load(tree)
	if err != nil {
		return nil, fmt.Errorf("loading previous snapshot: %w", err)
	}

	generator, err := core.NewGenerator(core.Options{
		OriginDir:    cfg.OriginDir,
		LocalizedDir: cfg.LocalizedDir,
		Templates:    registry,
		State:        core.NewState(previous),
	})
	if err != nil {
		return nil, err
	}

	return &Runner{cfg: cfg, store: store, tree: tree, generator: generator}, nil
}

// Config returns the configuration the runner was built from
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// Tree returns the key the runner stores its snapshot under
func (r *Runner) Tree() string {
	return r.tree
}

// Previous returns the snapshot the next pass diffs against
func (r *Runner) Previous() []models.OriginRoute {
	return r.generator.State().Previous()
}

// Routes loads the manifest at path, or the configured manifest when path is empty
func (r *Runner) Routes(path string) ([]models.OriginRoute, error) {
	if path == "" {
		path = r.cfg.ManifestPath
	}
	return manifest.Load(path, r.cfg.Locales)
}

// Generate runs one pass and persists the advanced snapshot, even when the pass fails
func (r *Runner) Generate(ctx context.Context, manifestPath, updated string) (*core.PassReport, error) {
	routes, err := r.Routes(manifestPath)
	if err != nil {
		return nil, err
	}

	report, genErr := r.generator.Generate(ctx, routes, NormalizeUpdatedPath(r.cfg.OriginDir, updated))

	if err := r.store.Save(r.tree, r.generator.State().Previous()); err != nil {
		if genErr != nil {
			log.Warnw("failed to save snapshot after failed pass", "tree", r.tree, "error", err)
			return report, genErr
		}
		return report, err
	}
	return report, genErr
}

// Plan reports what Generate would do without writing anything
func (r *Runner) Plan(manifestPath, updated string) (*core.PassReport, error) {
	routes, err := r.Routes(manifestPath)
	if err != nil {
		return nil, err
	}
	return r.generator.Plan(routes, NormalizeUpdatedPath(r.cfg.OriginDir, updated)), nil
}

// NormalizeUpdatedPath turns a changed-file path into a route identity.
// Absolute paths under originDir are made relative to it. A relative path
// is taken as cwd-relative when it resolves under originDir from a cwd
// outside the origin tree; otherwise it is already a route identity.
// Separators become forward slashes.
func NormalizeUpdatedPath(originDir, p string) string {
	if strings.TrimSpace(p) == "" {
		return ""
	}

	clean := filepath.Clean(p)
	originAbs, err := filepath.Abs(originDir)
	if err != nil {
		return filepath.ToSlash(clean)
	}

	target := clean
	if !filepath.IsAbs(clean) {
		cwd, err := os.Getwd()
		if err != nil {
			return filepath.ToSlash(clean)
		}
		if _, inside := relativeUnder(originAbs, cwd); inside || cwd == originAbs {
			return filepath.ToSlash(clean)
		}
		target = filepath.Join(cwd, clean)
	}

	if rel, ok := relativeUnder(originAbs, target); ok {
		return rel
	}
	return filepath.ToSlash(clean)
}

// relativeUnder returns path relative to root when it lies strictly below root
func relativeUnder(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
