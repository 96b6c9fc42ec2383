package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/mixer"
	"github.com/eigerco/poe/pkg/log"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{
		DataDir:   "./data",
		Backend:   BackendPebble,
		LogLevel:  "info",
		LogFormat: "console",
		BlockTime: 5 * time.Second,
	}, cfg)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POE_DATA_DIR", dir)
	t.Setenv("POE_DB_BACKEND", "bolt")
	t.Setenv("POE_LOG_LEVEL", "debug")
	t.Setenv("POE_LOG_FORMAT", "json")
	t.Setenv("POE_BLOCK_TIME", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendBolt, cfg.Backend)
	assert.Equal(t, time.Minute, cfg.BlockTime)

	opts, err := cfg.LogOptions()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, opts.LogLevel)
	assert.Equal(t, log.JSONLogger, opts.Type)

	kv, err := cfg.OpenStore()
	require.NoError(t, err)
	require.NoError(t, kv.Put([]byte("k"), []byte("v")))
	require.NoError(t, kv.Close())
	assert.FileExists(t, filepath.Join(dir, "poe.db"))
}

func TestValidate(t *testing.T) {
	valid := Config{DataDir: "d", Backend: BackendPebble, LogLevel: "info", LogFormat: "console", BlockTime: time.Second}
	require.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"unknown backend", func(c *Config) { c.Backend = "sqlite" }},
		{"zero block time", func(c *Config) { c.BlockTime = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

const genesisYAML = `
start_time: 2024-01-01T00:00:00Z
admin: operator
balances:
  - address: funder
    denom: reward
    amount: "340282366920938463463374607431768211456"
registries:
  - label: engagement
    halflife: 720h
    preauth_hooks: 2
    members:
      - address: alice
        points: 9
  - label: stake
    preauth_hooks: 1
    members:
      - address: alice
        points: 16
stakes:
  - label: bonded
    denom: utgd
    tokens_per_point: 10
    min_bond: "50"
    unbonding_period: 504h
    auto_return_limit: 20
    slashers: [judge]
    bonds:
      - {address: alice, amount: "160"}
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

func TestParseGenesis(t *testing.T) {
	g, err := ParseGenesis([]byte(genesisYAML))
	require.NoError(t, err)

	assert.True(t, g.StartTime.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, address.Address("operator"), g.Admin)
	require.Len(t, g.Registries, 2)
	assert.Equal(t, 720*time.Hour, g.Registries[0].Halflife)
	assert.Equal(t, mixer.GeometricMean, g.Mixers[0].Function)

	require.Len(t, g.Stakes, 1)
	st := g.Stakes[0]
	assert.Equal(t, 21*24*time.Hour, st.UnbondingPeriod)
	assert.Equal(t, []string{"judge"}, st.Slashers)
	minBond, err := st.MinBondAmount()
	require.NoError(t, err)
	assert.Equal(t, uint64(50), minBond.Uint64())
	bond, err := st.Bonds[0].Coin(st.Denom)
	require.NoError(t, err)
	assert.Equal(t, "160utgd", bond.String())
	assert.Equal(t, address.Contract("bonded"), g.Resolve("bonded"))

	coin, err := g.Balances[0].Coin()
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211456", coin.Amount.Dec())

	assert.Equal(t, address.Contract("stake"), g.Resolve("stake"))
	assert.Equal(t, address.Address("alice"), g.Resolve("alice"))
	assert.Equal(t, address.Address("operator"), *g.AdminOr(nil))
}

func TestParseGenesisErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"unknown field", "start_time: 2024-01-01T00:00:00Z\nadmin: op\ncolor: red\n"},
		{"missing start", "admin: op\n"},
		{"bad admin", "start_time: 2024-01-01T00:00:00Z\nadmin: Op!\n"},
		{"bad amount", "start_time: 2024-01-01T00:00:00Z\nadmin: op\nbalances:\n  - {address: a, denom: r, amount: ten}\n"},
		{"duplicate label", "start_time: 2024-01-01T00:00:00Z\nadmin: op\nregistries:\n  - label: x\nledgers:\n  - {label: x, group: x, denom: r}\n"},
		{"bad min bond", "start_time: 2024-01-01T00:00:00Z\nadmin: op\nstakes:\n  - {label: s, denom: utgd, min_bond: lots}\n"},
		{"bad bond", "start_time: 2024-01-01T00:00:00Z\nadmin: op\nstakes:\n  - {label: s, denom: utgd, bonds: [{address: a, amount: ten}]}\n"},
		{"stake label taken", "start_time: 2024-01-01T00:00:00Z\nadmin: op\nregistries:\n  - label: s\nstakes:\n  - {label: s, denom: utgd}\n"},
		{"bad function", "start_time: 2024-01-01T00:00:00Z\nadmin: op\nmixers:\n  - {label: m, left: a, right: b, function: max}\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGenesis([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadGenesisFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(genesisYAML), 0o600))
	g, err := LoadGenesis(path)
	require.NoError(t, err)
	assert.Len(t, g.Ledgers, 1)

	_, err = LoadGenesis(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
