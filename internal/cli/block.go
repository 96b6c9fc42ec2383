package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/eigerco/poe/internal/node"
	"github.com/eigerco/poe/pkg/log"
)

type AdvanceBlockOptions struct {
	*RootOptions
	Duration time.Duration
	Blocks   uint64
}

// NewAdvanceBlockCommand creates the advance-block command.
func NewAdvanceBlockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdvanceBlockOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "advance-block",
		Short: "Produce blocks, running end-of-block work such as halflife decay",
		Long: `Produce one or more empty blocks. Each block is --duration after the
previous one (default POE_BLOCK_TIME) and runs every registry's halflife
check.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvanceBlock(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Duration, "duration", rootOpts.Config.BlockTime, "time between blocks")
	cmd.Flags().Uint64Var(&opts.Blocks, "blocks", 1, "number of blocks to produce")

	return cmd
}

func runAdvanceBlock(opts *AdvanceBlockOptions, cmd *cobra.Command) error {
	return withNode(opts.RootOptions, cmd, false, func(n *node.Node) (any, error) {
		if opts.Duration <= 0 {
			return nil, badArg("duration must be positive, got %s", opts.Duration)
		}
		if opts.Blocks == 0 {
			return nil, badArg("blocks must be at least 1")
		}
		env := n.Env()
		for i := uint64(0); i < opts.Blocks; i++ {
			var err error
			if env, err = n.AdvanceBlock(opts.Duration); err != nil {
				return nil, err
			}
		}
		log.Root.Info().Uint64("height", env.Height).Uint64("blocks", opts.Blocks).Msg("blocks produced")
		return BlockResult{Height: env.Height, Time: env.Time.Format(time.RFC3339)}, nil
	})
}
