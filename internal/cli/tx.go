package cli

import (
	"github.com/spf13/cobra"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/decimal"
	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/ledger"
	"github.com/eigerco/poe/internal/node"
	"github.com/eigerco/poe/internal/registry"
	"github.com/eigerco/poe/internal/stake"
)

type TxOptions struct {
	*RootOptions
	Sender string
}

// buildFunc turns positional arguments into the target contract and message.
type buildFunc func(n *node.Node, args []string) (address.Address, any, error)

// NewTxCommand creates the tx command and its message subcommands.
func NewTxCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TxOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Execute a message on a contract",
		Long: `Execute a message on a contract as --sender. Contracts may be given by
label or by address. The message and every hook it triggers commit
together or not at all.`,
	}
	cmd.PersistentFlags().StringVar(&opts.Sender, "sender", "", "address sending the message")
	_ = cmd.MarkPersistentFlagRequired("sender")

	cmd.AddCommand(
		newTxSubcommand(opts, "set-points <registry> <member> <points>", "Set a member's points", 3, buildSetPoints),
		newTxSubcommand(opts, "add-points <registry> <member> <points>", "Add to a member's points", 3, buildAddPoints),
		newTxSubcommand(opts, "remove-member <registry> <member>", "Remove a member", 2, buildRemoveMember),
		newTxSubcommand(opts, "add-hook <source> <hook>", "Subscribe a contract to membership changes", 2, buildAddHook),
		newTxSubcommand(opts, "remove-hook <source> <hook>", "Unsubscribe a contract", 2, buildRemoveHook),
		newTxSubcommand(opts, "add-slasher <source> <slasher>", "Allow an address to slash", 2, buildAddSlasher),
		newTxSubcommand(opts, "remove-slasher <source> <slasher>", "Revoke a slasher", 2, buildRemoveSlasher),
		newTxSubcommand(opts, "slash <source> <member> <portion>", "Take a portion (0,1] of a member's points or stake", 3, buildSlash),
		newTxSubcommand(opts, "bond <stake> <amount> <denom>", "Bond tokens for points", 3, buildBond),
		newTxSubcommand(opts, "unbond <stake> <amount> <denom>", "Unbond tokens into a claim", 3, buildUnbond),
		newTxSubcommand(opts, "claim <stake>", "Pay out matured claims", 1, buildClaim),
		newTxSubcommand(opts, "distribute <ledger> <amount> <denom>", "Send rewards to a ledger and split them", 3, buildDistribute),
		newTxSubcommand(opts, "withdraw <ledger> [owner] [receiver]", "Withdraw accrued rewards", -3, buildWithdraw),
		newTxSubcommand(opts, "delegate <ledger> <delegate>", "Let another address withdraw your rewards", 2, buildDelegate),
		newTxSubcommand(opts, "update-admin <source> [admin]", "Replace or clear a source's admin", -2, buildUpdateAdmin),
	)

	return cmd
}

// newTxSubcommand wires a message builder. A negative nargs allows from one
// up to -nargs arguments.
func newTxSubcommand(opts *TxOptions, use, short string, nargs int, build buildFunc) *cobra.Command {
	args := cobra.ExactArgs(nargs)
	if nargs < 0 {
		args = cobra.RangeArgs(1, -nargs)
	}
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(opts.RootOptions, cmd, false, func(n *node.Node) (any, error) {
				sender, err := parseAddress(opts.Sender)
				if err != nil {
					return nil, err
				}
				contract, msg, err := build(n, args)
				if err != nil {
					return nil, err
				}
				resp, err := n.Execute(sender, contract, msg)
				if err != nil {
					return nil, err
				}
				return newTxResult(n.Env().Height, contract, resp), nil
			})
		},
	}
}

// contractAndMember resolves the usual <contract> <member> pair.
func contractAndMember(n *node.Node, args []string) (address.Address, address.Address, error) {
	contract, err := resolve(n, args[0])
	if err != nil {
		return "", "", err
	}
	member, err := resolve(n, args[1])
	if err != nil {
		return "", "", err
	}
	return contract, member, nil
}

func buildSetPoints(n *node.Node, args []string) (address.Address, any, error) {
	contract, member, err := contractAndMember(n, args)
	if err != nil {
		return "", nil, err
	}
	points, err := parseUint("points", args[2])
	if err != nil {
		return "", nil, err
	}
	return contract, registry.SetPoints{Addr: member, Points: points}, nil
}

func buildAddPoints(n *node.Node, args []string) (address.Address, any, error) {
	contract, member, err := contractAndMember(n, args)
	if err != nil {
		return "", nil, err
	}
	points, err := parseUint("points", args[2])
	if err != nil {
		return "", nil, err
	}
	return contract, registry.AddPoints{Addr: member, Points: points}, nil
}

func buildRemoveMember(n *node.Node, args []string) (address.Address, any, error) {
	contract, member, err := contractAndMember(n, args)
	if err != nil {
		return "", nil, err
	}
	return contract, registry.UpdateMembers{Remove: []address.Address{member}}, nil
}

func buildAddHook(n *node.Node, args []string) (address.Address, any, error) {
	contract, hook, err := contractAndMember(n, args)
	if err != nil {
		return "", nil, err
	}
	return contract, group.AddHook{Addr: hook}, nil
}

func buildRemoveHook(n *node.Node, args []string) (address.Address, any, error) {
	contract, hook, err := contractAndMember(n, args)
	if err != nil {
		return "", nil, err
	}
	return contract, group.RemoveHook{Addr: hook}, nil
}

func buildAddSlasher(n *node.Node, args []string) (address.Address, any, error) {
	contract, slasher, err := contractAndMember(n, args)
	if err != nil {
		return "", nil, err
	}
	return contract, registry.AddSlasher{Addr: slasher}, nil
}

func buildRemoveSlasher(n *node.Node, args []string) (address.Address, any, error) {
	contract, slasher, err := contractAndMember(n, args)
	if err != nil {
		return "", nil, err
	}
	return contract, registry.RemoveSlasher{Addr: slasher}, nil
}

func buildSlash(n *node.Node, args []string) (address.Address, any, error) {
	contract, member, err := contractAndMember(n, args)
	if err != nil {
		return "", nil, err
	}
	portion, err := decimal.Parse(args[2])
	if err != nil {
		return "", nil, argError{err}
	}
	return contract, registry.Slash{Addr: member, Portion: portion}, nil
}

func buildBond(n *node.Node, args []string) (address.Address, any, error) {
	contract, err := resolve(n, args[0])
	if err != nil {
		return "", nil, err
	}
	coin, err := parseCoin(args[1], args[2])
	if err != nil {
		return "", nil, err
	}
	return contract, stake.Bond{Amount: coin}, nil
}

func buildUnbond(n *node.Node, args []string) (address.Address, any, error) {
	contract, err := resolve(n, args[0])
	if err != nil {
		return "", nil, err
	}
	coin, err := parseCoin(args[1], args[2])
	if err != nil {
		return "", nil, err
	}
	return contract, stake.Unbond{Amount: coin}, nil
}

func buildClaim(n *node.Node, args []string) (address.Address, any, error) {
	contract, err := resolve(n, args[0])
	if err != nil {
		return "", nil, err
	}
	return contract, stake.Claim{}, nil
}

func buildDistribute(n *node.Node, args []string) (address.Address, any, error) {
	contract, err := resolve(n, args[0])
	if err != nil {
		return "", nil, err
	}
	coin, err := parseCoin(args[1], args[2])
	if err != nil {
		return "", nil, err
	}
	return contract, ledger.Distribute{Amount: coin}, nil
}

func buildWithdraw(n *node.Node, args []string) (address.Address, any, error) {
	contract, err := resolve(n, args[0])
	if err != nil {
		return "", nil, err
	}
	var msg ledger.Withdraw
	if len(args) > 1 {
		owner, err := parseAddress(args[1])
		if err != nil {
			return "", nil, err
		}
		msg.Owner = &owner
	}
	if len(args) > 2 {
		receiver, err := parseAddress(args[2])
		if err != nil {
			return "", nil, err
		}
		msg.Receiver = &receiver
	}
	return contract, msg, nil
}

func buildDelegate(n *node.Node, args []string) (address.Address, any, error) {
	contract, delegated, err := contractAndMember(n, args)
	if err != nil {
		return "", nil, err
	}
	return contract, ledger.DelegateWithdrawal{Delegated: delegated}, nil
}

func buildUpdateAdmin(n *node.Node, args []string) (address.Address, any, error) {
	contract, err := resolve(n, args[0])
	if err != nil {
		return "", nil, err
	}
	var msg group.UpdateAdmin
	if len(args) > 1 {
		admin, err := resolve(n, args[1])
		if err != nil {
			return "", nil, err
		}
		msg.Admin = &admin
	}
	return contract, msg, nil
}
