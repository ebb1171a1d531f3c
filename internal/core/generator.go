// ABOUTME: Generation orchestrator driving one localization pass
// ABOUTME: Diffs against the retained snapshot, writes what changed, then sweeps stale outputs
package core

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/harper/routegen/internal/models"
	"github.com/harper/routegen/internal/templates"
)

var log = logging.Logger("routegen/core")

// State holds the snapshot of the previous pass. A State must be driven by
// one caller at a time; concurrent passes over the same State race.
type State struct {
	previous []models.OriginRoute
}

// NewState creates a state seeded with a previous snapshot, which may be nil
func NewState(previous []models.OriginRoute) *State {
	return &State{previous: slices.Clone(previous)}
}

// Previous returns the snapshot of the last pass
func (s *State) Previous() []models.OriginRoute {
	return s.previous
}

func (s *State) replace(routes []models.OriginRoute) {
	s.previous = slices.Clone(routes)
}

// TemplateSource resolves the compiler for a rendered route
type TemplateSource interface {
	Compiler(route models.OriginRoute) (templates.Compiler, error)
}

// Options configures a Generator
type Options struct {
	OriginDir    string
	LocalizedDir string
	Templates    TemplateSource
	State        *State
}

// Generator runs localization passes against one origin/localized tree pair
type Generator struct {
	writer    *Writer
	sweeper   *Sweeper
	templates TemplateSource
	state     *State
}

// WrittenFile is one localized file produced by a pass
type WrittenFile struct {
	Origin string `json:"origin"`
	Locale string `json:"locale"`
	Path   string `json:"path"`
}

// PassReport summarizes one pass
type PassReport struct {
	PassID            string        `json:"passId"`
	UpdatedOriginPath string        `json:"updatedOriginPath,omitempty"`
	DryRun            bool          `json:"dryRun,omitempty"`
	NewPaths          []string      `json:"newPaths"`
	RemovedPaths      []string      `json:"removedPaths"`
	Written           []WrittenFile `json:"written"`
	Swept             []SweepResult `json:"swept"`
}

// Skipped counts stale paths the sweeper could not remove
func (r *PassReport) Skipped() int {
	n := 0
	for _, s := range r.Swept {
		if s.Status == SweepSkipped {
			n++
		}
	}
	return n
}

// NewGenerator creates a generator. A nil State starts from an empty snapshot.
func NewGenerator(opts Options) (*Generator, error) {
	if opts.Templates == nil {
		return nil, fmt.Errorf("generator requires a template source")
	}
	writer, err := NewWriter(opts.OriginDir, opts.LocalizedDir)
	if err != nil {
		return nil, err
	}
	sweeper, err := NewSweeper(opts.LocalizedDir)
	if err != nil {
		return nil, err
	}
	state := opts.State
	if state == nil {
		state = NewState(nil)
	}
	return &Generator{
		writer:    writer,
		sweeper:   sweeper,
		templates: opts.Templates,
		state:     state,
	}, nil
}

// State returns the state the generator advances
func (g *Generator) State() *State {
	return g.state
}

// Generate runs one pass over routes. updatedOriginPath, when non-empty,
// scopes the pass to that origin route plus any route gaining a new output.
//
// The snapshot advances before any file is written, so a failed pass is not
// retried by the next one. Writes happen before stale paths are swept.
func (g *Generator) Generate(ctx context.Context, routes []models.OriginRoute, updatedOriginPath string) (*PassReport, error) {
	newPaths, removedPaths := DiffPaths(g.state.Previous(), routes)
	g.state.replace(routes)

	report := newReport(newPaths, removedPaths, updatedOriginPath)
	log.Debugw("pass started", "pass", report.PassID, "routes", len(routes),
		"new", len(newPaths), "removed", len(removedPaths), "updated", updatedOriginPath)

	for _, route := range routes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !NeedsUpdate(route, newPaths, updatedOriginPath) {
			continue
		}

		var compile templates.Compiler
		if !route.Type.IsCopy() {
			c, err := g.templates.Compiler(route)
			if err != nil {
				return report, fmt.Errorf("resolving template for %q: %w", route.Path, err)
			}
			compile = c
		}

		for _, locale := range route.Locales() {
			localizedPath := route.LocalizedPaths[locale]
			if err := g.writer.Write(route, compile, locale, localizedPath); err != nil {
				return report, err
			}
			report.Written = append(report.Written, WrittenFile{Origin: route.Path, Locale: locale, Path: localizedPath})
		}
	}

	report.Swept = g.sweeper.Sweep(removedPaths)

	log.Infow("pass finished", "pass", report.PassID, "written", len(report.Written),
		"swept", len(report.Swept), "skipped", report.Skipped())
	return report, nil
}

// Plan reports what Generate would do without touching the filesystem or the snapshot
func (g *Generator) Plan(routes []models.OriginRoute, updatedOriginPath string) *PassReport {
	newPaths, removedPaths := DiffPaths(g.state.Previous(), routes)

	report := newReport(newPaths, removedPaths, updatedOriginPath)
	report.DryRun = true

	for _, route := range routes {
		if !NeedsUpdate(route, newPaths, updatedOriginPath) {
			continue
		}
		for _, locale := range route.Locales() {
			report.Written = append(report.Written, WrittenFile{Origin: route.Path, Locale: locale, Path: route.LocalizedPaths[locale]})
		}
	}
	return report
}

func newReport(newPaths, removedPaths PathSet, updatedOriginPath string) *PassReport {
	return &PassReport{
		PassID:            uuid.New().String(),
		UpdatedOriginPath: updatedOriginPath,
		NewPaths:          newPaths.Sorted(),
		RemovedPaths:      removedPaths.Sorted(),
		Written:           []WrittenFile{},
		Swept:             []SweepResult{},
	}
}
