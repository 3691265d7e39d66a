package derivation

import (
	"github.com/strangelove-ventures/horcrux-recovery/extkey"
)

// KeyMaterial is the child key produced by a strategy. PrivateKey is nil for
// public-only derivations and otherwise a 32 byte big-endian scalar.
type KeyMaterial struct {
	PublicKey  []byte
	PrivateKey []byte
	WIF        string
}

// Strategy derives child keys and signs for one algorithm family.
type Strategy interface {
	Family() extkey.Family
	Derive(key *extkey.ExtendedKey, parts []uint32) (*KeyMaterial, error)
	Sign(privateKey, msg []byte) ([]byte, error)
}

// StrategyFor returns the strategy of an algorithm family.
func StrategyFor(f extkey.Family) Strategy {
	if f == extkey.FamilyEdDSA {
		return EdDSAStrategy{}
	}
	return ECDSAStrategy{}
}
