// Package signer produces raw signatures from derived private keys: recoverable
// secp256k1 ECDSA signatures and Fireblocks style ed25519 EdDSA signatures.
package signer

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/strangelove-ventures/horcrux-recovery/internal/curve"
)

const (
	DigestSize          = 32
	ECDSASignatureSize  = crypto.SignatureLength
	ecdsaRecoveryIDByte = crypto.RecoveryIDOffset
)

// SignECDSA signs a 32 byte digest with a secp256k1 private key and returns
// r ‖ s ‖ v where v is the recovery id.
func SignECDSA(privateKey, digest []byte) ([]byte, error) {
	if len(privateKey) == 0 {
		return nil, ErrNoPrivateKey
	}
	if len(digest) != DigestSize {
		return nil, fmt.Errorf("%w, got %d bytes", ErrInvalidDigest, len(digest))
	}

	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivKey, err)
	}
	defer curve.ZeroInt(key.D)

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, err
	}
	totalSignatures.WithLabelValues("ecdsa").Inc()
	return sig, nil
}

// VerifyECDSA checks an r ‖ s ‖ v signature against a compressed or
// uncompressed secp256k1 public key.
func VerifyECDSA(publicKey, digest, sig []byte) bool {
	if len(sig) != ECDSASignatureSize || len(digest) != DigestSize {
		return false
	}
	return crypto.VerifySignature(publicKey, digest, sig[:ecdsaRecoveryIDByte])
}

// RecoverECDSA returns the compressed public key that produced sig.
func RecoverECDSA(digest, sig []byte) ([]byte, error) {
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return nil, err
	}
	return crypto.CompressPubkey(pub), nil
}
