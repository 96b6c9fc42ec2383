package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(CoinResult{Denom: "reward", Amount: "5"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"denom": "reward", "amount": "5"}, resp.Data)
}

func TestOutputFormatter_TextUsesStringer(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(MemberList{{Address: "alice", Points: 3}, {Address: "bob", Points: 1}}))
	assert.Equal(t, "alice 3\nbob 1\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error(ErrCodeRejected, "denied", "more"))
	assert.Equal(t, "Error [E005]: denied\nDetails: more\n", buf.String())
}

func TestOutputFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("opened %s", "store")
	assert.Empty(t, out.String())
	assert.Equal(t, "opened store\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("hidden")
	assert.Equal(t, "opened store\n", errOut.String())
}

func TestTxResultString(t *testing.T) {
	res := TxResult{
		Height:     4,
		Contract:   "poeabc",
		Attributes: []attributeResult{{Key: "action", Value: "withdraw"}, {Key: "amount", Value: "7"}},
	}
	assert.Equal(t, "height=4 contract=poeabc action=withdraw amount=7", res.String())
}
