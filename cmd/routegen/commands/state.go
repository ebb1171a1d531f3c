// ABOUTME: State commands for the persisted generation snapshot
// ABOUTME: Provides show, list, and reset
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/routegen/internal/storage"
)

// NewStateCmd creates the state command group
func NewStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the snapshot of the previous pass",
		Long: `Manage the snapshot routegen diffs each pass against.

By default the snapshot is a JSON file at .routegen/snapshot.json next to
the localized dir (ROUTEGEN_STATE_FILE overrides it). With
ROUTEGEN_STATE_BACKEND=charm it lives in Charm KV instead, syncing across
devices when CHARM_AUTO_SYNC is set. The memory backend forgets it on exit.`,
	}

	cmd.AddCommand(newStateShowCmd())
	cmd.AddCommand(newStateListCmd())
	cmd.AddCommand(newStateResetCmd())

	return cmd
}

func newStateShowCmd() *cobra.Command {
	var site siteFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the routes recorded by the previous pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := site.openRunner()
			if err != nil {
				return err
			}
			defer store.Close()

			routes := r.Previous()
			out := cmd.OutOrStdout()
			if useJSON(out) {
				return writeJSON(out, map[string]interface{}{
					"tree":   r.Tree(),
					"routes": routes,
				})
			}

			if len(routes) == 0 {
				fmt.Fprintf(out, "No snapshot for %s\n", r.Tree())
				return nil
			}

			fmt.Fprintf(out, "Snapshot for %s: %d %s\n\n", r.Tree(), len(routes), pluralize(len(routes), "route"))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tTYPE\tLOCALE\tLOCALIZED PATH")
			for _, route := range routes {
				for _, locale := range route.Locales() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", route.Path, route.Type, locale, route.LocalizedPaths[locale])
				}
			}
			return w.Flush()
		},
	}

	site.register(cmd)
	return cmd
}

func newStateListCmd() *cobra.Command {
	var site siteFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List localized trees with a stored snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := site.loadConfig()
			if err != nil {
				return err
			}
			store, err := storage.Open(cfg)
			if err != nil {
				return fmt.Errorf("opening snapshot store: %w", err)
			}
			defer store.Close()

			trees, err := store.Trees()
			if err != nil {
				return fmt.Errorf("listing snapshots: %w", err)
			}

			out := cmd.OutOrStdout()
			if useJSON(out) {
				return writeJSON(out, map[string]interface{}{"trees": trees})
			}
			if len(trees) == 0 {
				fmt.Fprintln(out, "No snapshots stored")
				return nil
			}
			for _, tree := range trees {
				fmt.Fprintln(out, tree)
			}
			return nil
		},
	}

	site.register(cmd)
	return cmd
}

func newStateResetCmd() *cobra.Command {
	var (
		site    siteFlags
		confirm bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget the previous pass so the next one rewrites everything",
		Long: `Delete the stored snapshot for the localized tree.

The next generate treats every localized path as new and rewrites the
whole tree. Files already in the localized tree are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !confirm {
				fmt.Fprintln(out, "This will forget the previous pass for this tree!")
				fmt.Fprintln(out, "Run with --confirm to proceed")
				return nil
			}

			cfg, err := site.loadConfig()
			if err != nil {
				return err
			}
			tree, err := storage.TreeKey(cfg.LocalizedDir)
			if err != nil {
				return err
			}
			store, err := storage.Open(cfg)
			if err != nil {
				return fmt.Errorf("opening snapshot store: %w", err)
			}
			defer store.Close()

			if err := store.Delete(tree); err != nil {
				return fmt.Errorf("failed to reset snapshot: %w", err)
			}

			fmt.Fprintf(out, "Snapshot for %s reset\n", tree)
			return nil
		},
	}

	site.register(cmd)
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the reset")

	return cmd
}
