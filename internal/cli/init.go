package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/eigerco/poe/internal/config"
	"github.com/eigerco/poe/internal/node"
)

type InitOptions struct {
	*RootOptions
	Genesis string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the chain from a genesis file",
		Long: `Create the chain from a YAML genesis file: mint balances, then
instantiate registries, mixers and ledgers in the order listed.

Fails if the data directory already holds a chain.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Genesis, "genesis", "genesis.yaml", "path to the genesis file")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	g, err := config.LoadGenesis(opts.Genesis)
	if err != nil {
		f := newFormatter(opts.RootOptions, cmd)
		return fail(f, ErrCodeInvalidArgs, ExitCommandError, err)
	}
	return withNode(opts.RootOptions, cmd, true, func(n *node.Node) (any, error) {
		if err := n.ApplyGenesis(g); err != nil {
			return nil, err
		}
		env := n.Env()
		return BlockResult{Height: env.Height, Time: env.Time.Format(time.RFC3339)}, nil
	})
}
