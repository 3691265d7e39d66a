package derivation

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/strangelove-ventures/horcrux-recovery/extkey"
	"github.com/strangelove-ventures/horcrux-recovery/signer"
)

// ECDSAStrategy is standard non-hardened BIP32 over secp256k1.
type ECDSAStrategy struct{}

func (ECDSAStrategy) Family() extkey.Family { return extkey.FamilyECDSA }

func (ECDSAStrategy) Derive(key *extkey.ExtendedKey, parts []uint32) (*KeyMaterial, error) {
	if key.Family() != extkey.FamilyECDSA {
		return nil, ErrNotXprvOrXpub
	}
	child, err := hdkeychain.NewKeyFromString(key.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotXprvOrXpub, err)
	}
	for _, part := range parts {
		child, err = child.Derive(part)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child %d: %w", part, err)
		}
	}

	pub, err := child.ECPubKey()
	if err != nil {
		return nil, err
	}
	km := &KeyMaterial{PublicKey: pub.SerializeCompressed()}
	if !child.IsPrivate() {
		return km, nil
	}

	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, err
	}
	defer priv.Zero()
	wif, err := btcutil.NewWIF(priv, &chaincfg.MainNetParams, true)
	if err != nil {
		return nil, err
	}
	km.PrivateKey = priv.Serialize()
	km.WIF = wif.String()
	return km, nil
}

// Sign signs a 32 byte digest, returning r ‖ s ‖ v.
func (ECDSAStrategy) Sign(privateKey, digest []byte) ([]byte, error) {
	return signer.SignECDSA(privateKey, digest)
}
