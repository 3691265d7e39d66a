// Package curve holds the secp256k1 and ed25519 primitives shared by key
// reconstruction, derivation and signing.
package curve

import (
	"errors"
	"math/big"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcec/v2"
	tsed25519 "gitlab.com/unit410/threshold-ed25519/pkg"
)

const ScalarSize = 32

var (
	// Secp256k1Order is the order n of the secp256k1 base point.
	Secp256k1Order = new(big.Int).Set(btcec.S256().N)

	// Ed25519Order is the order l of the ed25519 base point,
	// 2^252 + 27742317777372353535851937790883648493.
	Ed25519Order, _ = new(big.Int).SetString(
		"7237005577332262213973186563042994240857116359379907606001950938285454250989", 10)

	ErrInvalidScalar = errors.New("scalar is out of range for curve")
	ErrInvalidPoint  = errors.New("invalid curve point encoding")
)

// PadScalar returns x as a 32 byte big-endian slice.
func PadScalar(x *big.Int) []byte {
	return x.FillBytes(make([]byte, ScalarSize))
}

// Reverse returns a reversed copy of b.
func Reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

// Secp256k1PublicKey returns the 33 byte compressed encoding of x*G.
func Secp256k1PublicKey(x *big.Int) ([]byte, error) {
	if x.Sign() <= 0 || x.Cmp(Secp256k1Order) >= 0 {
		return nil, ErrInvalidScalar
	}
	priv, _ := btcec.PrivKeyFromBytes(PadScalar(x))
	defer priv.Zero()
	return priv.PubKey().SerializeCompressed(), nil
}

// Ed25519PublicKey returns the 32 byte encoding of x*B with x reduced mod l.
func Ed25519PublicKey(x *big.Int) []byte {
	reduced := new(big.Int).Mod(x, Ed25519Order)
	return tsed25519.ScalarMultiplyBase(Reverse(PadScalar(reduced)))
}

// Ed25519Scalar converts x into an ed25519 scalar, reducing it mod l.
func Ed25519Scalar(x *big.Int) *edwards25519.Scalar {
	reduced := new(big.Int).Mod(x, Ed25519Order)
	s, err := edwards25519.NewScalar().SetCanonicalBytes(Reverse(PadScalar(reduced)))
	if err != nil {
		// unreachable, the value is reduced mod l
		panic(err)
	}
	return s
}

// Ed25519ScalarToInt converts an ed25519 scalar back to a big-endian integer.
func Ed25519ScalarToInt(s *edwards25519.Scalar) *big.Int {
	return new(big.Int).SetBytes(Reverse(s.Bytes()))
}

// Ed25519Point decodes a 32 byte compressed edwards point.
func Ed25519Point(b []byte) (*edwards25519.Point, error) {
	p, err := edwards25519.NewIdentityPoint().SetBytes(b)
	if err != nil {
		return nil, ErrInvalidPoint
	}
	return p, nil
}

// Ed25519BaseMult returns x*B for x reduced mod l.
func Ed25519BaseMult(x *big.Int) *edwards25519.Point {
	return edwards25519.NewIdentityPoint().ScalarBaseMult(Ed25519Scalar(x))
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroInt overwrites the words backing x and sets it to zero.
func ZeroInt(x *big.Int) {
	if x == nil {
		return
	}
	words := x.Bits()
	for i := range words {
		words[i] = 0
	}
	x.SetInt64(0)
}
