package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/node"
)

// argError marks errors caused by the command line rather than the chain.
type argError struct {
	error
}

func badArg(format string, args ...any) error {
	return argError{fmt.Errorf(format, args...)}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func fail(f *OutputFormatter, code string, exit int, err error) error {
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exit, code, err)
}

// withNode opens the configured chain, runs fn and prints what it returns.
// Unless fresh is set, the chain must already have been initialized.
func withNode(opts *RootOptions, cmd *cobra.Command, fresh bool, fn func(n *node.Node) (any, error)) error {
	f := newFormatter(opts, cmd)
	n, err := node.Open(opts.Config)
	if err != nil {
		return fail(f, ErrCodeStore, ExitCommandError, err)
	}
	defer n.Close() //nolint:errcheck
	f.VerboseLog("opened %s store in %s at height %d", opts.Config.Backend, opts.Config.DataDir, n.Env().Height)

	if !fresh {
		if err := n.Started(); err != nil {
			return fail(f, ErrCodeNotInitialized, ExitCommandError, err)
		}
	}
	out, err := fn(n)
	var ae argError
	switch {
	case errors.As(err, &ae):
		return fail(f, ErrCodeInvalidArgs, ExitCommandError, err)
	case err != nil:
		return fail(f, ErrCodeRejected, ExitFailure, err)
	}
	return f.Success(out)
}

func parseUint(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, badArg("%s %q: %w", name, s, err)
	}
	return v, nil
}

func parseAddress(s string) (address.Address, error) {
	a, err := address.Parse(s)
	if err != nil {
		return "", argError{err}
	}
	return a, nil
}

// resolve accepts a contract label or an address.
func resolve(n *node.Node, ref string) (address.Address, error) {
	a, err := n.Resolve(ref)
	if errors.Is(err, address.ErrInvalid) {
		return "", argError{err}
	}
	return a, err
}

func parseCoin(amount, denom string) (bank.Coin, error) {
	v, err := uint256.FromDecimal(amount)
	if err != nil {
		return bank.Coin{}, badArg("amount %q: %w", amount, err)
	}
	if err := bank.ValidateDenom(denom); err != nil {
		return bank.Coin{}, argError{err}
	}
	return bank.Coin{Denom: denom, Amount: *v}, nil
}
