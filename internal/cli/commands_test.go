package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTwiceFails(t *testing.T) {
	cfg := initChain(t)
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testGenesis), 0o600))

	out, err := run(t, cfg, "init", "--genesis", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeRejected)
}

func TestInitMissingGenesis(t *testing.T) {
	_, err := run(t, testConfig(t), "init", "--genesis", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQueriesAfterInit(t *testing.T) {
	cfg := initChain(t)

	out, err := run(t, cfg, "query", "points", "mixed", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice 12\n", out)

	out, err = run(t, cfg, "query", "total", "mixed")
	require.NoError(t, err)
	assert.Equal(t, "total_points=18\n", out)

	out, err = run(t, cfg, "query", "members", "stake", "--by-points", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, "alice 16\n", out)

	out, err = run(t, cfg, "query", "members", "stake", "--by-points", "--start-after", "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob 9\n", out)

	out, err = run(t, cfg, "query", "hooks", "mixed")
	require.NoError(t, err)
	assert.Contains(t, out, "poe")

	out, err = run(t, cfg, "query", "sources", "mixed")
	require.NoError(t, err)
	assert.Contains(t, out, "geometric_mean(")

	out, err = run(t, cfg, "query", "admin", "engagement")
	require.NoError(t, err)
	assert.Equal(t, "admin=operator\n", out)

	out, err = run(t, cfg, "--format", "json", "query", "contracts")
	require.NoError(t, err)
	resp := decode(t, out)
	assert.Len(t, resp.Data, 5)
}

func TestRewardsThroughCommands(t *testing.T) {
	cfg := initChain(t)

	out, err := run(t, cfg, "tx", "distribute", "rewards", "180", "reward", "--sender", "funder")
	require.NoError(t, err)
	assert.Contains(t, out, "action=distribute")

	out, err = run(t, cfg, "query", "withdrawable", "rewards", "alice")
	require.NoError(t, err)
	assert.Equal(t, "120reward\n", out)

	out, err = run(t, cfg, "--format", "json", "tx", "withdraw", "rewards", "--sender", "alice")
	require.NoError(t, err)
	resp := decode(t, out)
	attrs := map[string]string{}
	for _, a := range resp.Data.(map[string]any)["attributes"].([]any) {
		kv := a.(map[string]any)
		attrs[kv["key"].(string)] = kv["value"].(string)
	}
	assert.Equal(t, "withdrawn", attrs["result"])
	assert.Equal(t, "120", attrs["amount"])

	out, err = run(t, cfg, "query", "balance", "alice", "reward")
	require.NoError(t, err)
	assert.Equal(t, "120reward\n", out)

	out, err = run(t, cfg, "query", "distributed", "rewards")
	require.NoError(t, err)
	assert.Equal(t, "180reward\n", out)

	_, err = run(t, cfg, "tx", "delegate", "rewards", "carol", "--sender", "bob")
	require.NoError(t, err)
	out, err = run(t, cfg, "query", "delegated", "rewards", "bob")
	require.NoError(t, err)
	assert.Equal(t, "delegated=carol\n", out)

	out, err = run(t, cfg, "tx", "withdraw", "rewards", "bob", "carol", "--sender", "carol")
	require.NoError(t, err)
	assert.Contains(t, out, "amount=60")
}

func TestMembershipCommands(t *testing.T) {
	cfg := initChain(t)

	_, err := run(t, cfg, "tx", "set-points", "engagement", "bob", "16", "--sender", "operator")
	require.NoError(t, err)
	out, err := run(t, cfg, "query", "points", "mixed", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob 12\n", out)

	_, err = run(t, cfg, "tx", "add-points", "engagement", "carol", "4", "--sender", "operator")
	require.NoError(t, err)
	_, err = run(t, cfg, "tx", "remove-member", "engagement", "carol", "--sender", "operator")
	require.NoError(t, err)
	out, err = run(t, cfg, "query", "points", "engagement", "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol 0\n", out)

	_, err = run(t, cfg, "tx", "add-slasher", "engagement", "judge", "--sender", "operator")
	require.NoError(t, err)
	_, err = run(t, cfg, "tx", "slash", "engagement", "bob", "0.5", "--sender", "judge")
	require.NoError(t, err)
	out, err = run(t, cfg, "query", "points", "engagement", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob 8\n", out)
	_, err = run(t, cfg, "tx", "remove-slasher", "engagement", "judge", "--sender", "judge")
	require.NoError(t, err)

	_, err = run(t, cfg, "tx", "update-admin", "engagement", "--sender", "operator")
	require.NoError(t, err)
	out, err = run(t, cfg, "query", "admin", "engagement")
	require.NoError(t, err)
	assert.Equal(t, "admin=\n", out)
}

func TestStakeCommands(t *testing.T) {
	cfg := initChain(t)

	out, err := run(t, cfg, "query", "points", "bonded", "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol 6\n", out)

	_, err = run(t, cfg, "tx", "bond", "bonded", "20", "utgd", "--sender", "carol")
	require.NoError(t, err)
	out, err = run(t, cfg, "query", "staked", "bonded", "carol")
	require.NoError(t, err)
	assert.Equal(t, "80utgd\n", out)

	out, err = run(t, cfg, "tx", "unbond", "bonded", "30", "utgd", "--sender", "carol")
	require.NoError(t, err)
	assert.Contains(t, out, "action=unbond")
	out, err = run(t, cfg, "query", "points", "bonded", "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol 5\n", out)
	out, err = run(t, cfg, "query", "claims", "bonded", "carol")
	require.NoError(t, err)
	assert.Contains(t, out, "30 at ")

	out, err = run(t, cfg, "tx", "claim", "bonded", "--sender", "carol")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeRejected)

	_, err = run(t, cfg, "advance-block", "--blocks", "1", "--duration", "25h")
	require.NoError(t, err)
	out, err = run(t, cfg, "tx", "claim", "bonded", "--sender", "carol")
	require.NoError(t, err)
	assert.Contains(t, out, "tokens=30utgd")
	out, err = run(t, cfg, "query", "balance", "carol", "utgd")
	require.NoError(t, err)
	assert.Equal(t, "50utgd\n", out)

	_, err = run(t, cfg, "tx", "add-slasher", "bonded", "judge", "--sender", "operator")
	require.NoError(t, err)
	out, err = run(t, cfg, "query", "slashers", "bonded")
	require.NoError(t, err)
	assert.Contains(t, out, "judge")
	_, err = run(t, cfg, "tx", "slash", "bonded", "carol", "0.5", "--sender", "judge")
	require.NoError(t, err)
	out, err = run(t, cfg, "query", "staked", "bonded", "carol")
	require.NoError(t, err)
	assert.Equal(t, "25utgd\n", out)
}

func TestAdvanceBlockAppliesHalflife(t *testing.T) {
	cfg := initChain(t)

	out, err := run(t, cfg, "advance-block", "--blocks", "2", "--duration", "13h")
	require.NoError(t, err)
	assert.Contains(t, out, "height=3")

	out, err = run(t, cfg, "query", "points", "engagement", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice 4\n", out)
}

func TestCommandErrors(t *testing.T) {
	cfg := initChain(t)

	testCases := []struct {
		name string
		args []string
		exit int
		code string
	}{
		{"bad points", []string{"tx", "set-points", "engagement", "alice", "lots", "--sender", "operator"}, ExitCommandError, ErrCodeInvalidArgs},
		{"bad sender", []string{"tx", "set-points", "engagement", "alice", "1", "--sender", "Operator"}, ExitCommandError, ErrCodeInvalidArgs},
		{"bad amount", []string{"tx", "distribute", "rewards", "ten", "reward", "--sender", "funder"}, ExitCommandError, ErrCodeInvalidArgs},
		{"bad portion", []string{"tx", "slash", "engagement", "bob", "half", "--sender", "operator"}, ExitCommandError, ErrCodeInvalidArgs},
		{"not admin", []string{"tx", "set-points", "engagement", "alice", "1", "--sender", "mallory"}, ExitFailure, ErrCodeRejected},
		{"insufficient funds", []string{"tx", "distribute", "rewards", "5000", "reward", "--sender", "funder"}, ExitFailure, ErrCodeRejected},
		{"wrong contract", []string{"query", "withdrawable", "engagement", "alice"}, ExitFailure, ErrCodeRejected},
		{"bad blocks", []string{"advance-block", "--blocks", "0"}, ExitCommandError, ErrCodeInvalidArgs},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, cfg, tc.args...)
			require.Error(t, err)
			assert.Equal(t, tc.exit, GetExitCode(err))
			assert.Contains(t, out, tc.code)
		})
	}
}

func TestErrorsAsJSON(t *testing.T) {
	cfg := initChain(t)
	out, err := run(t, cfg, "--format", "json", "tx", "set-points", "engagement", "alice", "1", "--sender", "mallory")
	require.Error(t, err)

	resp := decode(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRejected, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "unauthorized")
}

func TestCommandsNeedInit(t *testing.T) {
	out, err := run(t, testConfig(t), "query", "contracts")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotInitialized)
}

func TestMissingSender(t *testing.T) {
	cfg := initChain(t)
	_, err := run(t, cfg, "tx", "set-points", "engagement", "alice", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	wrapped := WrapExitError(ExitFailure, "E005", errors.New("inner"))
	assert.Equal(t, "E005: inner", wrapped.Error())
}
