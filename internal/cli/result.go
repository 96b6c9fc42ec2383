package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/stake"
)

type attributeResult struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TxResult reports an executed message.
type TxResult struct {
	Height     uint64            `json:"height"`
	Contract   address.Address   `json:"contract"`
	Attributes []attributeResult `json:"attributes"`
}

func newTxResult(height uint64, contract address.Address, resp *chain.Response) TxResult {
	res := TxResult{Height: height, Contract: contract, Attributes: []attributeResult{}}
	if resp != nil {
		for _, a := range resp.Attributes {
			res.Attributes = append(res.Attributes, attributeResult{Key: a.Key, Value: a.Value})
		}
	}
	return res
}

func (r TxResult) String() string {
	parts := []string{fmt.Sprintf("height=%d contract=%s", r.Height, r.Contract)}
	for _, a := range r.Attributes {
		parts = append(parts, a.Key+"="+a.Value)
	}
	return strings.Join(parts, " ")
}

type MemberResult struct {
	Address     address.Address `json:"address"`
	Points      uint64          `json:"points"`
	StartHeight uint64          `json:"start_height,omitempty"`
}

func (m MemberResult) String() string {
	return fmt.Sprintf("%s %d", m.Address, m.Points)
}

type MemberList []MemberResult

func newMemberList(members []group.Member) MemberList {
	list := make(MemberList, 0, len(members))
	for _, m := range members {
		list = append(list, MemberResult{Address: m.Addr, Points: m.Points, StartHeight: m.StartHeight})
	}
	return list
}

func (l MemberList) String() string {
	lines := make([]string, 0, len(l))
	for _, m := range l {
		lines = append(lines, m.String())
	}
	return strings.Join(lines, "\n")
}

type AddressList []address.Address

func (l AddressList) String() string {
	lines := make([]string, 0, len(l))
	for _, a := range l {
		lines = append(lines, a.String())
	}
	return strings.Join(lines, "\n")
}

// ValueResult is a single named value.
type ValueResult struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (v ValueResult) String() string {
	return v.Name + "=" + v.Value
}

type CoinResult struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func newCoinResult(c bank.Coin) CoinResult {
	return CoinResult{Denom: c.Denom, Amount: c.Amount.Dec()}
}

func (c CoinResult) String() string {
	return c.Amount + c.Denom
}

type ClaimResult struct {
	Amount    string `json:"amount"`
	ReleaseAt string `json:"release_at"`
}

type ClaimList []ClaimResult

func newClaimList(claims []stake.PendingClaim) ClaimList {
	list := make(ClaimList, 0, len(claims))
	for _, c := range claims {
		list = append(list, ClaimResult{Amount: c.Amount.Dec(), ReleaseAt: c.ReleaseAt.Format(time.RFC3339)})
	}
	return list
}

func (l ClaimList) String() string {
	lines := make([]string, 0, len(l))
	for _, c := range l {
		lines = append(lines, c.Amount+" at "+c.ReleaseAt)
	}
	return strings.Join(lines, "\n")
}

type ContractResult struct {
	Address address.Address `json:"address"`
	Kind    chain.Kind      `json:"kind"`
}

type ContractList []ContractResult

func (l ContractList) String() string {
	lines := make([]string, 0, len(l))
	for _, c := range l {
		lines = append(lines, fmt.Sprintf("%s %s", c.Address, c.Kind))
	}
	return strings.Join(lines, "\n")
}

type BlockResult struct {
	Height uint64 `json:"height"`
	Time   string `json:"time"`
}

func (b BlockResult) String() string {
	return fmt.Sprintf("height=%d time=%s", b.Height, b.Time)
}
