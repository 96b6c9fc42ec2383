package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/ledger"
	"github.com/eigerco/poe/internal/mixer"
	"github.com/eigerco/poe/internal/node"
	"github.com/eigerco/poe/internal/stake"
)

type MembersOptions struct {
	StartAfter string
	Limit      uint32
	ByPoints   bool
}

type SourcesResult struct {
	Left     address.Address `json:"left"`
	Right    address.Address `json:"right"`
	Function mixer.Function  `json:"function"`
}

func (s SourcesResult) String() string {
	return fmt.Sprintf("%s(%s, %s)", s.Function, s.Left, s.Right)
}

type queryFunc func(n *node.Node, args []string) (any, error)

// NewQueryCommand creates the query command and its subcommands.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read committed contract state",
	}

	members := &MembersOptions{}
	membersCmd := newQuerySubcommand(rootOpts, "members <source>", "List members by address or by points", 1,
		func(n *node.Node, args []string) (any, error) {
			return queryMembers(n, args[0], members)
		})
	membersCmd.Flags().StringVar(&members.StartAfter, "start-after", "", "continue after this member")
	membersCmd.Flags().Uint32Var(&members.Limit, "limit", 0, fmt.Sprintf("page size (default %d, max %d)", group.DefaultLimit, group.MaxLimit))
	membersCmd.Flags().BoolVar(&members.ByPoints, "by-points", false, "order by points, highest first")

	cmd.AddCommand(
		newQuerySubcommand(rootOpts, "points <source> <member>", "Points of one member", 2, queryPoints),
		newQuerySubcommand(rootOpts, "total <source>", "Total points of a source", 1, queryTotal),
		membersCmd,
		newQuerySubcommand(rootOpts, "hooks <source>", "Hooks of a source in delivery order", 1, queryHooks),
		newQuerySubcommand(rootOpts, "admin <source>", "Admin of a source", 1, queryAdmin),
		newQuerySubcommand(rootOpts, "slashers <source>", "Addresses allowed to slash a source", 1, querySlashers),
		newQuerySubcommand(rootOpts, "staked <stake> <address>", "Tokens bonded by an address", 2, queryStaked),
		newQuerySubcommand(rootOpts, "claims <stake> <address>", "Unbonded tokens waiting for release", 2, queryClaims),
		newQuerySubcommand(rootOpts, "sources <mixer>", "The two sources and function of a mixer", 1, querySources),
		newQuerySubcommand(rootOpts, "withdrawable <ledger> <owner>", "Rewards an owner may withdraw", 2, queryWithdrawable),
		newQuerySubcommand(rootOpts, "distributed <ledger>", "Rewards distributed to members so far", 1, queryDistributed),
		newQuerySubcommand(rootOpts, "undistributed <ledger>", "Rewards waiting for members with points", 1, queryUndistributed),
		newQuerySubcommand(rootOpts, "delegated <ledger> <owner>", "Who may withdraw for an owner", 2, queryDelegated),
		newQuerySubcommand(rootOpts, "balance <address> <denom>", "Bank balance", 2, queryBalance),
		newQuerySubcommand(rootOpts, "contracts", "Every contract with its kind", 0, queryContracts),
	)

	return cmd
}

func newQuerySubcommand(opts *RootOptions, use, short string, nargs int, fn queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ExactArgs(nargs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(opts, cmd, false, func(n *node.Node) (any, error) {
				return fn(n, args)
			})
		},
	}
}

// query resolves ref and runs msg against it.
func query(n *node.Node, ref string, msg any) (any, error) {
	contract, err := resolve(n, ref)
	if err != nil {
		return nil, err
	}
	return n.Query(contract, msg)
}

func queryPoints(n *node.Node, args []string) (any, error) {
	member, err := resolve(n, args[1])
	if err != nil {
		return nil, err
	}
	res, err := query(n, args[0], group.MemberQuery{Addr: member})
	if err != nil {
		return nil, err
	}
	m := res.(group.Member)
	return MemberResult{Address: member, Points: m.Points, StartHeight: m.StartHeight}, nil
}

func queryTotal(n *node.Node, args []string) (any, error) {
	res, err := query(n, args[0], group.TotalPointsQuery{})
	if err != nil {
		return nil, err
	}
	return ValueResult{Name: "total_points", Value: strconv.FormatUint(res.(uint64), 10)}, nil
}

func queryMembers(n *node.Node, ref string, opts *MembersOptions) (any, error) {
	contract, err := resolve(n, ref)
	if err != nil {
		return nil, err
	}
	var startAfter address.Address
	if opts.StartAfter != "" {
		if startAfter, err = resolve(n, opts.StartAfter); err != nil {
			return nil, err
		}
	}

	var msg any = group.ListMembersQuery{StartAfter: startAfter, Limit: opts.Limit}
	if opts.ByPoints {
		q := group.ListMembersByPointsQuery{Limit: opts.Limit}
		if startAfter != "" {
			// the by-points cursor needs the member's current points
			res, err := n.Query(contract, group.MemberQuery{Addr: startAfter})
			if err != nil {
				return nil, err
			}
			cursor := res.(group.Member)
			cursor.Addr = startAfter
			q.StartAfter = &cursor
		}
		msg = q
	}
	res, err := n.Query(contract, msg)
	if err != nil {
		return nil, err
	}
	return newMemberList(res.([]group.Member)), nil
}

func queryHooks(n *node.Node, args []string) (any, error) {
	res, err := query(n, args[0], group.HooksQuery{})
	if err != nil {
		return nil, err
	}
	return AddressList(res.([]address.Address)), nil
}

func queryAdmin(n *node.Node, args []string) (any, error) {
	res, err := query(n, args[0], group.AdminQuery{})
	if err != nil {
		return nil, err
	}
	admin := res.(group.AdminResponse).Admin
	if admin == nil {
		return ValueResult{Name: "admin"}, nil
	}
	return ValueResult{Name: "admin", Value: admin.String()}, nil
}

func querySlashers(n *node.Node, args []string) (any, error) {
	res, err := query(n, args[0], group.ListSlashersQuery{})
	if err != nil {
		return nil, err
	}
	return AddressList(res.([]address.Address)), nil
}

func queryStaked(n *node.Node, args []string) (any, error) {
	addr, err := resolve(n, args[1])
	if err != nil {
		return nil, err
	}
	res, err := query(n, args[0], stake.StakedQuery{Addr: addr})
	if err != nil {
		return nil, err
	}
	return newCoinResult(res.(bank.Coin)), nil
}

func queryClaims(n *node.Node, args []string) (any, error) {
	addr, err := resolve(n, args[1])
	if err != nil {
		return nil, err
	}
	res, err := query(n, args[0], stake.ClaimsQuery{Addr: addr, Limit: group.MaxLimit})
	if err != nil {
		return nil, err
	}
	return newClaimList(res.([]stake.PendingClaim)), nil
}

func querySources(n *node.Node, args []string) (any, error) {
	res, err := query(n, args[0], mixer.SourcesQuery{})
	if err != nil {
		return nil, err
	}
	s := res.(mixer.SourcesResponse)
	return SourcesResult{Left: s.Left, Right: s.Right, Function: s.Function}, nil
}

func queryWithdrawable(n *node.Node, args []string) (any, error) {
	owner, err := parseAddress(args[1])
	if err != nil {
		return nil, err
	}
	res, err := query(n, args[0], ledger.WithdrawableQuery{Owner: owner})
	if err != nil {
		return nil, err
	}
	return newCoinResult(res.(bank.Coin)), nil
}

func queryDistributed(n *node.Node, args []string) (any, error) {
	res, err := query(n, args[0], ledger.DistributedRewardsQuery{})
	if err != nil {
		return nil, err
	}
	return newCoinResult(res.(bank.Coin)), nil
}

func queryUndistributed(n *node.Node, args []string) (any, error) {
	res, err := query(n, args[0], ledger.UndistributedRewardsQuery{})
	if err != nil {
		return nil, err
	}
	return newCoinResult(res.(bank.Coin)), nil
}

func queryDelegated(n *node.Node, args []string) (any, error) {
	owner, err := parseAddress(args[1])
	if err != nil {
		return nil, err
	}
	res, err := query(n, args[0], ledger.DelegatedQuery{Owner: owner})
	if err != nil {
		return nil, err
	}
	return ValueResult{Name: "delegated", Value: res.(address.Address).String()}, nil
}

func queryBalance(n *node.Node, args []string) (any, error) {
	addr, err := resolve(n, args[0])
	if err != nil {
		return nil, err
	}
	if err := bank.ValidateDenom(args[1]); err != nil {
		return nil, argError{err}
	}
	amount, err := bank.Balance(n.Reader(), addr, args[1])
	if err != nil {
		return nil, err
	}
	return CoinResult{Denom: args[1], Amount: amount.Dec()}, nil
}

func queryContracts(n *node.Node, _ []string) (any, error) {
	infos, err := n.Contracts()
	if err != nil {
		return nil, err
	}
	list := make(ContractList, 0, len(infos))
	for _, info := range infos {
		list = append(list, ContractResult{Address: info.Address, Kind: info.Kind})
	}
	return list, nil
}
