package derivation

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// Purpose is the first, fixed component of every derivation path.
const Purpose uint32 = 44

// HDPath is a BIP44 style path m/44/coinType/account/change/addressIndex.
// All components are derived non-hardened.
type HDPath struct {
	CoinType     uint32 `json:"coinType" yaml:"coinType"`
	Account      uint32 `json:"account" yaml:"account"`
	ChangeIndex  uint32 `json:"changeIndex" yaml:"changeIndex"`
	AddressIndex uint32 `json:"addressIndex" yaml:"addressIndex"`
}

// PathInput is a partially specified path. Unset components take defaults.
type PathInput struct {
	CoinType     *uint32
	Account      uint32
	ChangeIndex  uint32
	AddressIndex uint32
}

// Parts returns the path as [44, coinType, account, change, addressIndex].
func (p HDPath) Parts() []uint32 {
	return []uint32{Purpose, p.CoinType, p.Account, p.ChangeIndex, p.AddressIndex}
}

func (p HDPath) String() string {
	return fmt.Sprintf("m/%d/%d/%d/%d/%d", Purpose, p.CoinType, p.Account, p.ChangeIndex, p.AddressIndex)
}

// Validate rejects components that would fall in the hardened range.
func (p HDPath) Validate() error {
	for _, part := range p.Parts() {
		if part >= hdkeychain.HardenedKeyStart {
			return fmt.Errorf("%w: component %d of %s is hardened", ErrInvalidPath, part, p)
		}
	}
	return nil
}

// Type is the address type recorded for a derivation.
func (p HDPath) Type() string {
	if p.AddressIndex > 0 {
		return TypeDeposit
	}
	return TypePermanent
}

const (
	TypePermanent = "Permanent"
	TypeDeposit   = "Deposit"
)
