package cli

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eigerco/poe/internal/address"
)

// KeyResult is a freshly generated account.
type KeyResult struct {
	Address    address.Address `json:"address"`
	Ed25519Pub string          `json:"ed25519_public_key"`
	Ed25519Prv string          `json:"ed25519_private_key"`
}

func (k KeyResult) String() string {
	return fmt.Sprintf("address: %s\npublic key: %s\nprivate key: %s", k.Address, k.Ed25519Pub, k.Ed25519Prv)
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "keygen",
		Short:         "Generate an ed25519 key and its address",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			key, err := generateKey()
			if err != nil {
				return fail(f, ErrCodeGeneric, ExitFailure, err)
			}
			return f.Success(key)
		},
	}
}

func generateKey() (KeyResult, error) {
	pub, prv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return KeyResult{}, fmt.Errorf("generate key: %w", err)
	}
	addr, err := address.FromPublicKey(pub)
	if err != nil {
		return KeyResult{}, err
	}
	return KeyResult{
		Address:    addr,
		Ed25519Pub: hex.EncodeToString(pub),
		Ed25519Prv: hex.EncodeToString(prv),
	}, nil
}
