// ABOUTME: Generate command runs one localization pass, or keeps running them with --watch
// ABOUTME: Scoped to a changed origin file with --updated, or diff-only with --dry-run
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/routegen/internal/config"
	"github.com/harper/routegen/internal/core"
	"github.com/harper/routegen/internal/watch"
)

var (
	generateSite    siteFlags
	generateUpdated string
	generateDryRun  bool
	generateWatch   bool
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write localized route files for the manifest",
		Long: `Run one generation pass.

Routes whose localized paths are new since the previous pass are written,
along with the route named by --updated. Localized paths that disappeared
from the manifest are removed, and directories left empty are pruned.

The previous pass is read from the snapshot backend (a JSON file next to
the localized dir by default), so separate runs stay incremental.

With --watch, routegen stays running after the first pass and runs a pass
for every changed origin file and every manifest edit.

Examples:
  routegen generate
  routegen generate --updated about/page.tsx
  routegen generate --watch
  routegen generate --dry-run --format json`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}

	generateSite.register(cmd)
	cmd.Flags().StringVar(&generateUpdated, "updated", "", "Origin file that changed, relative to the origin dir")
	cmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Report what would change without touching files")
	cmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "Keep running and regenerate on origin and manifest changes")
	cmd.MarkFlagsMutuallyExclusive("watch", "dry-run")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	r, store, err := generateSite.openRunner()
	if err != nil {
		return err
	}
	defer store.Close()

	if generateDryRun {
		report, err := r.Plan(generateSite.manifest, generateUpdated)
		if err != nil {
			return err
		}
		return printReport(cmd.OutOrStdout(), report)
	}

	cfg := r.Config()
	if cfg.StateBackend == config.BackendMemory && !generateWatch {
		log.Warnw("memory backend keeps no snapshot between runs; removed routes are not swept and every route is rewritten",
			"hint", "use --state file or --state charm")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	report, genErr := r.Generate(ctx, generateSite.manifest, generateUpdated)
	if report != nil {
		if err := printReport(out, report); err != nil {
			return err
		}
	}
	if !generateWatch {
		return genErr
	}
	if genErr != nil {
		log.Warnw("initial pass failed, watching anyway", "error", genErr)
	}

	manifestPath := generateSite.manifest
	if manifestPath == "" {
		manifestPath = cfg.ManifestPath
	}
	w, err := watch.New(r, watch.Options{
		OriginDir:    cfg.OriginDir,
		ManifestPath: manifestPath,
		Debounce:     cfg.WatchDebounce,
		OnPass: func(report *core.PassReport, err error) {
			if report != nil {
				if perr := printReport(out, report); perr != nil {
					log.Warnw("failed to print report", "error", perr)
				}
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
		},
	})
	if err != nil {
		return err
	}

	log.Infow("watching for changes", "origin", cfg.OriginDir, "manifest", manifestPath)
	return w.Run(ctx)
}
