package node

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/config"
	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/ledger"
	"github.com/eigerco/poe/internal/decimal"
	"github.com/eigerco/poe/internal/registry"
	"github.com/eigerco/poe/internal/stake"
	"github.com/eigerco/poe/pkg/db/pebble"
)

const genesisYAML = `
start_time: 2024-01-01T00:00:00Z
admin: operator
balances:
  - address: funder
    denom: reward
    amount: "1000"
  - address: alice
    denom: utgd
    amount: "200"
  - address: bob
    denom: utgd
    amount: "100"
registries:
  - label: engagement
    preauth_hooks: 1
    halflife: 24h
    slashers: [judge]
    members:
      - {address: alice, points: 9}
      - {address: bob, points: 4}
stakes:
  - label: stake
    denom: utgd
    tokens_per_point: 10
    min_bond: "50"
    unbonding_period: 48h
    auto_return_limit: 10
    preauth_hooks: 1
    slashers: [judge]
    bonds:
      - {address: alice, amount: "160"}
      - {address: bob, amount: "90"}
mixers:
  - label: mixed
    left: engagement
    right: stake
    function: geometric_mean
    preauth_hooks: 1
ledgers:
  - label: rewards
    group: mixed
    denom: reward
`

func newNode(t *testing.T) *Node {
	t.Helper()
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	n, err := New(kv)
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func applyGenesis(t *testing.T, n *Node) {
	t.Helper()
	g, err := config.ParseGenesis([]byte(genesisYAML))
	require.NoError(t, err)
	require.NoError(t, n.ApplyGenesis(g))
}

func points(t *testing.T, n *Node, source string, member address.Address) uint64 {
	t.Helper()
	addr, err := n.Resolve(source)
	require.NoError(t, err)
	res, err := n.Query(addr, group.MemberQuery{Addr: member})
	require.NoError(t, err)
	return res.(group.Member).Points
}

func TestApplyGenesis(t *testing.T) {
	n := newNode(t)
	assert.ErrorIs(t, n.Started(), ErrNotInitialized)
	applyGenesis(t, n)
	require.NoError(t, n.Started())

	assert.Equal(t, uint64(1), n.Env().Height)
	assert.Equal(t, uint64(12), points(t, n, "mixed", "alice"))
	assert.Equal(t, uint64(6), points(t, n, "mixed", "bob"))

	bal, err := bank.Balance(n.Reader(), "funder", "reward")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), bal.Uint64())

	res, err := n.Query(address.Contract("engagement"), registry.IsSlasherQuery{Addr: "judge"})
	require.NoError(t, err)
	assert.Equal(t, true, res)

	res, err = n.Query(address.Contract("engagement"), group.AdminQuery{})
	require.NoError(t, err)
	assert.Equal(t, address.Address("operator"), *res.(group.AdminResponse).Admin)

	infos, err := n.Contracts()
	require.NoError(t, err)
	assert.Len(t, infos, 4)

	kind, err := n.KindOf(address.Contract("stake"))
	require.NoError(t, err)
	assert.Equal(t, stake.Kind, kind)

	g, err := config.ParseGenesis([]byte(genesisYAML))
	require.NoError(t, err)
	assert.Error(t, n.ApplyGenesis(g), "genesis applies once")
}

func TestGenesisRewardsFlow(t *testing.T) {
	n := newNode(t)
	applyGenesis(t, n)
	rewards := address.Contract("rewards")

	_, err := n.Execute("funder", rewards, ledger.Distribute{Amount: bank.NewCoin("reward", 180)})
	require.NoError(t, err)

	for member, want := range map[address.Address]uint64{"alice": 120, "bob": 60} {
		amount, err := ledger.Withdrawable(n.Reader(), rewards, member)
		require.NoError(t, err)
		assert.Equal(t, want, amount.Uint64(), member)
	}

	// bob's engagement change flows through the mixer into the ledger
	_, err = n.Execute("operator", address.Contract("engagement"), registry.SetPoints{Addr: "bob", Points: 16})
	require.NoError(t, err)
	assert.Equal(t, uint64(12), points(t, n, "mixed", "bob"))

	_, err = n.Execute("funder", rewards, ledger.Distribute{Amount: bank.NewCoin("reward", 240)})
	require.NoError(t, err)
	resp, err := n.Execute("bob", rewards, ledger.Withdraw{})
	require.NoError(t, err)
	amount, _ := resp.Attr("amount")
	assert.Equal(t, "180", amount)
}

func utgd(t *testing.T, n *Node, addr address.Address) uint64 {
	t.Helper()
	bal, err := bank.Balance(n.Reader(), addr, "utgd")
	require.NoError(t, err)
	return bal.Uint64()
}

func TestGenesisStakeUnbondAndAutoReturn(t *testing.T) {
	n := newNode(t)
	applyGenesis(t, n)
	stakeAddr := address.Contract("stake")

	assert.Equal(t, uint64(16), points(t, n, "stake", "alice"))
	assert.Equal(t, uint64(9), points(t, n, "stake", "bob"))
	assert.Equal(t, uint64(10), utgd(t, n, "bob"))
	assert.Equal(t, uint64(250), utgd(t, n, stakeAddr))

	_, err := n.Execute("bob", stakeAddr, stake.Unbond{Amount: bank.NewCoin("utgd", 30)})
	require.NoError(t, err)
	assert.Equal(t, uint64(6), points(t, n, "stake", "bob"))
	assert.Equal(t, uint64(4), points(t, n, "mixed", "bob"))

	res, err := n.Query(stakeAddr, stake.ClaimsQuery{Addr: "bob"})
	require.NoError(t, err)
	claims := res.([]stake.PendingClaim)
	require.Len(t, claims, 1)
	assert.Equal(t, uint64(30), claims[0].Amount.Uint64())

	_, err = n.AdvanceBlock(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), utgd(t, n, "bob"))

	_, err = n.AdvanceBlock(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), utgd(t, n, "bob"), "matured claim returned at end block")
	assert.Equal(t, uint64(220), utgd(t, n, stakeAddr))

	res, err = n.Query(stakeAddr, stake.ClaimsQuery{Addr: "bob"})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestGenesisStakeSlashing(t *testing.T) {
	n := newNode(t)
	applyGenesis(t, n)
	stakeAddr := address.Contract("stake")
	half, err := decimal.Parse("0.5")
	require.NoError(t, err)

	_, err = n.Execute("judge", stakeAddr, stake.Slash{Addr: "alice", Portion: half})
	require.NoError(t, err)
	assert.Equal(t, uint64(8), points(t, n, "stake", "alice"))
	assert.Equal(t, uint64(8), points(t, n, "mixed", "alice"))
	assert.Equal(t, uint64(170), utgd(t, n, stakeAddr), "slashed tokens are burned")
}

func TestGenesisHalflifeRunsAtEndBlock(t *testing.T) {
	n := newNode(t)
	applyGenesis(t, n)

	_, err := n.AdvanceBlock(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), points(t, n, "engagement", "alice"))

	_, err = n.AdvanceBlock(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), points(t, n, "engagement", "alice"))
	assert.Equal(t, uint64(8), points(t, n, "mixed", "alice"))
}

func TestResolve(t *testing.T) {
	n := newNode(t)
	applyGenesis(t, n)

	addr, err := n.Resolve("rewards")
	require.NoError(t, err)
	assert.Equal(t, address.Contract("rewards"), addr)

	addr, err = n.Resolve("alice")
	require.NoError(t, err)
	assert.Equal(t, address.Address("alice"), addr)

	_, err = n.Resolve("Not An Address")
	assert.ErrorIs(t, err, address.ErrInvalid)
}

func TestGenesisFailsOnBrokenWiring(t *testing.T) {
	n := newNode(t)
	g, err := config.ParseGenesis([]byte(`
start_time: 2024-01-01T00:00:00Z
admin: operator
registries:
  - label: engagement
ledgers:
  - label: rewards
    group: engagement
    denom: reward
`))
	require.NoError(t, err)
	err = n.ApplyGenesis(g)
	assert.ErrorIs(t, err, group.ErrUnauthorized, "no preauth left for the ledger hook")
}

func TestOpenReopensPersistedChain(t *testing.T) {
	cfg := config.Config{DataDir: t.TempDir(), Backend: config.BackendBolt}
	n, err := Open(cfg)
	require.NoError(t, err)
	applyGenesis(t, n)
	require.NoError(t, n.Close())

	n, err = Open(cfg)
	require.NoError(t, err)
	defer n.Close()
	require.NoError(t, n.Started())
	assert.Equal(t, uint64(12), points(t, n, "mixed", "alice"))
	assert.FileExists(t, filepath.Join(cfg.DataDir, "poe.db"))

	_, err = n.KindOf(address.Contract("rewards"))
	assert.NoError(t, err)
	_, err = n.KindOf("nobody")
	assert.ErrorIs(t, err, chain.ErrUnknownContract)
}
