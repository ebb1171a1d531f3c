// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Site flags, config loading, runner setup, and output formatting
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harper/routegen/internal/config"
	"github.com/harper/routegen/internal/core"
	"github.com/harper/routegen/internal/runner"
	"github.com/harper/routegen/internal/storage"
)

// siteFlags override the environment for one invocation
type siteFlags struct {
	originDir    string
	localizedDir string
	locales      string
	manifest     string
	backend      string
}

func (f *siteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.originDir, "origin-dir", "", "Origin route directory (overrides ROUTEGEN_ORIGIN_DIR)")
	cmd.Flags().StringVar(&f.localizedDir, "localized-dir", "", "Localized route directory (overrides ROUTEGEN_LOCALIZED_DIR)")
	cmd.Flags().StringVar(&f.locales, "locales", "", "Comma-separated locales (overrides ROUTEGEN_LOCALES)")
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "Route manifest file (overrides ROUTEGEN_MANIFEST)")
	cmd.Flags().StringVar(&f.backend, "state", "", "Snapshot backend: file, memory, or charm (overrides ROUTEGEN_STATE_BACKEND)")
}

// loadConfig reads .env and the environment, applies flag overrides, then validates
func (f *siteFlags) loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	// Validated below, once overrides are applied
	cfg, _ := config.Load()

	if f.originDir != "" {
		cfg.OriginDir = f.originDir
	}
	if f.localizedDir != "" {
		cfg.LocalizedDir = f.localizedDir
	}
	if f.locales != "" {
		cfg.Locales = config.SplitList(f.locales)
	}
	if f.manifest != "" {
		cfg.ManifestPath = f.manifest
	}
	if f.backend != "" {
		cfg.StateBackend = f.backend
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openRunner loads config and opens the snapshot store. Callers must close the store.
func (f *siteFlags) openRunner() (*runner.Runner, storage.SnapshotStore, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	r, err := runner.New(cfg, store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return r, store, nil
}

// useJSON resolves --format; auto picks JSON when w is not a terminal
func useJSON(w io.Writer) bool {
	switch outputFormat {
	case formatJSON:
		return true
	case formatText:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPaths prints a titled path list, or nothing when empty
func printPaths(w io.Writer, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d):\n", title, len(paths))
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

// printReport writes a pass summary in the selected format
func printReport(w io.Writer, report *core.PassReport) error {
	if useJSON(w) {
		return writeJSON(w, report)
	}

	header := "Pass " + report.PassID
	if report.DryRun {
		header += " (dry run)"
	}
	if report.UpdatedOriginPath != "" {
		header += " for " + report.UpdatedOriginPath
	}
	fmt.Fprintln(w, header)

	written := make([]string, 0, len(report.Written))
	for _, f := range report.Written {
		written = append(written, fmt.Sprintf("%s [%s] <- %s", f.Path, f.Locale, f.Origin))
	}
	verb := "Written"
	if report.DryRun {
		verb = "Would write"
	}
	printPaths(w, verb, written)

	var removed, skipped []string
	for _, s := range report.Swept {
		switch s.Status {
		case core.SweepRemoved:
			removed = append(removed, s.Path)
		case core.SweepSkipped:
			skipped = append(skipped, s.Path+": "+s.Reason)
		}
	}
	if report.DryRun {
		printPaths(w, "Would remove", report.RemovedPaths)
	} else {
		printPaths(w, "Removed", removed)
		printPaths(w, "Skipped", skipped)
	}

	fmt.Fprintf(w, "%d written, %d removed, %d skipped\n", len(report.Written), len(removed), len(skipped))
	return nil
}

// pluralize returns word with an s unless n is one
func pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
