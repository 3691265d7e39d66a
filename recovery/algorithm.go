package recovery

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/strangelove-ventures/horcrux-recovery/extkey"
	"github.com/strangelove-ventures/horcrux-recovery/internal/curve"
)

// Algorithm is the MPC scheme a key was generated with.
type Algorithm int

const (
	AlgorithmECDSASecp256k1 Algorithm = iota
	AlgorithmEdDSAEd25519
	AlgorithmCMPECDSASecp256k1
	AlgorithmCMPEdDSAEd25519
)

const (
	nameECDSASecp256k1    = "MPC_ECDSA_SECP256K1"
	nameEdDSAEd25519      = "MPC_EDDSA_ED25519"
	nameCMPECDSASecp256k1 = "MPC_CMP_ECDSA_SECP256K1"
	nameCMPEdDSAEd25519   = "MPC_CMP_EDDSA_ED25519"
)

// ParseAlgorithm maps a metadata algorithm name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case nameECDSASecp256k1:
		return AlgorithmECDSASecp256k1, nil
	case nameEdDSAEd25519:
		return AlgorithmEdDSAEd25519, nil
	case nameCMPECDSASecp256k1:
		return AlgorithmCMPECDSASecp256k1, nil
	case nameCMPEdDSAEd25519:
		return AlgorithmCMPEdDSAEd25519, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

func (a Algorithm) String() string {
	switch a {
	case AlgorithmECDSASecp256k1:
		return nameECDSASecp256k1
	case AlgorithmEdDSAEd25519:
		return nameEdDSAEd25519
	case AlgorithmCMPECDSASecp256k1:
		return nameCMPECDSASecp256k1
	case AlgorithmCMPEdDSAEd25519:
		return nameCMPEdDSAEd25519
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Family returns the signature family of the algorithm.
func (a Algorithm) Family() extkey.Family {
	switch a {
	case AlgorithmEdDSAEd25519, AlgorithmCMPEdDSAEd25519:
		return extkey.FamilyEdDSA
	default:
		return extkey.FamilyECDSA
	}
}

// IsCMP reports whether shares are additive rather than Shamir shares.
func (a Algorithm) IsCMP() bool {
	return a == AlgorithmCMPECDSASecp256k1 || a == AlgorithmCMPEdDSAEd25519
}

// Order returns the order of the curve base point.
func (a Algorithm) Order() *big.Int {
	if a.Family() == extkey.FamilyEdDSA {
		return curve.Ed25519Order
	}
	return curve.Secp256k1Order
}

// tagID is the algorithm id embedded in tagged mobile shares.
func (a Algorithm) tagID() int32 {
	if a.Family() == extkey.FamilyEdDSA {
		return 1
	}
	return 0
}

// PublicKey computes the public key for a private scalar, in the same
// encoding metadata uses: compressed secp256k1 or 32 byte ed25519.
func (a Algorithm) PublicKey(priv *big.Int) ([]byte, error) {
	if a.Family() == extkey.FamilyEdDSA {
		return curve.Ed25519PublicKey(priv), nil
	}
	return curve.Secp256k1PublicKey(priv)
}

func (a Algorithm) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Algorithm) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseAlgorithm(name)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
