// Package cli implements the poe command line: it opens the configured
// store, applies one command to the chain and reports the result.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/eigerco/poe/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. cfg locates the chain state.
func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:   "poe",
		Short: "Proof of engagement points and rewards",
		Long: `Operate a local chain of weighted points registries, mixers that
combine two registries, and ledgers that split rewards by points.

State lives in POE_DATA_DIR. Start with 'poe init --genesis genesis.yaml'.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewKeygenCommand(opts))
	cmd.AddCommand(NewTxCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewAdvanceBlockCommand(opts))

	return cmd
}
