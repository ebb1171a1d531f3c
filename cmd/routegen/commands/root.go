// ABOUTME: Root command and global flags for the routegen CLI
// ABOUTME: Wires subcommands and sets the log level from --verbose/--quiet
package commands

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
)

// Output formats accepted by --format
const (
	formatAuto = "auto"
	formatText = "text"
	formatJSON = "json"
)

var log = logging.Logger("routegen/cli")

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routegen",
		Short: "Generate localized route files from origin routes",
		Long: `routegen keeps a localized route tree in sync with an origin route tree.

Each origin route declares a localized path per locale. routegen copies
assets and renders re-export modules into the localized tree, rewriting
only what a change affects and removing outputs whose routes are gone.

Routes come from a manifest (routes.yaml or routes.json). The previous
pass is kept in memory or in Charm KV so passes stay incremental.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case formatAuto, formatText, formatJSON:
			default:
				return fmt.Errorf("--format must be %s, %s, or %s, got %q", formatAuto, formatText, formatJSON, outputFormat)
			}

			switch {
			case verbose:
				logging.SetAllLoggers(logging.LevelDebug)
			case quiet:
				logging.SetAllLoggers(logging.LevelError)
			default:
				logging.SetAllLoggers(logging.LevelWarn)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every decision of a pass")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", formatAuto, "Output format: auto, text, or json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewDiffCmd())
	cmd.AddCommand(NewStateCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
