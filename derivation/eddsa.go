package derivation

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"filippo.io/edwards25519"
	"github.com/strangelove-ventures/horcrux-recovery/extkey"
	"github.com/strangelove-ventures/horcrux-recovery/internal/curve"
	"github.com/strangelove-ventures/horcrux-recovery/signer"
)

// EdDSAStrategy is the Fireblocks ed25519 child derivation. It is not
// SLIP-0010: each level adds HMAC-SHA512(chainCode, A ‖ 0x00 ‖ idx)[:32] to
// the scalar and its base point multiple to the public key.
type EdDSAStrategy struct {
	// Rand supplies signing nonce seeds, defaulting to crypto/rand.
	Rand io.Reader
}

func (EdDSAStrategy) Family() extkey.Family { return extkey.FamilyEdDSA }

func (EdDSAStrategy) Derive(key *extkey.ExtendedKey, parts []uint32) (*KeyMaterial, error) {
	if key.Family() != extkey.FamilyEdDSA {
		return nil, ErrNotFprvOrFpub
	}

	chainCode := append([]byte{}, key.ChainCode...)
	var (
		prv *big.Int
		pub *edwards25519.Point
	)
	if key.IsPrivate() {
		prv = new(big.Int).SetBytes(key.PrivateKey())
		defer curve.ZeroInt(prv)
		pub = curve.Ed25519BaseMult(prv)
	} else {
		pubBytes, err := key.PublicKey()
		if err != nil {
			return nil, err
		}
		pub, err = curve.Ed25519Point(pubBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotFprvOrFpub, err)
		}
	}

	for _, idx := range parts {
		sum := eddsaChildHash(pub, chainCode, idx)
		exp := new(big.Int).SetBytes(sum[:32])
		pub = edwards25519.NewIdentityPoint().Add(pub, curve.Ed25519BaseMult(exp))
		if prv != nil {
			prv.Add(prv, exp).Mod(prv, curve.Ed25519Order)
		}
		chainCode = sum[32:]
	}

	km := &KeyMaterial{PublicKey: pub.Bytes()}
	if prv != nil {
		km.PrivateKey = curve.PadScalar(prv)
	}
	return km, nil
}

func eddsaChildHash(pub *edwards25519.Point, chainCode []byte, idx uint32) []byte {
	var idxBytes [4]byte
	binary.BigEndian.PutUint32(idxBytes[:], idx)

	mac := hmac.New(sha512.New, chainCode)
	mac.Write(pub.Bytes())
	mac.Write([]byte{0x00})
	mac.Write(idxBytes[:])
	return mac.Sum(nil)
}

// Sign signs the raw message, returning R ‖ S.
func (s EdDSAStrategy) Sign(privateKey, msg []byte) ([]byte, error) {
	return signer.EdDSASigner{Rand: s.Rand}.Sign(privateKey, msg)
}
