// ABOUTME: Diff command compares the manifest with the previous pass
// ABOUTME: Lists localized paths that a pass would create or remove
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var diffSite siteFlags

// NewDiffCmd creates the diff command
func NewDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show localized paths added or removed since the last pass",
		Long: `Compare the route manifest with the snapshot of the previous pass.

New paths would be written by the next generate; removed paths would be
deleted from the localized tree. Nothing is written.`,
		Args: cobra.NoArgs,
		RunE: runDiff,
	}

	diffSite.register(cmd)

	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	r, store, err := diffSite.openRunner()
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := r.Plan(diffSite.manifest, "")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if useJSON(out) {
		return writeJSON(out, map[string]interface{}{
			"tree":         r.Tree(),
			"newPaths":     report.NewPaths,
			"removedPaths": report.RemovedPaths,
		})
	}

	if len(report.NewPaths) == 0 && len(report.RemovedPaths) == 0 {
		fmt.Fprintln(out, "No changes")
		return nil
	}
	printPaths(out, "New", report.NewPaths)
	printPaths(out, "Removed", report.RemovedPaths)
	return nil
}
