package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"io"
	"math/big"

	"filippo.io/edwards25519"
	"github.com/strangelove-ventures/horcrux-recovery/internal/curve"
)

const (
	EdDSASignatureSize = ed25519.SignatureSize
	nonceSeedSize      = 32
)

// EdDSASigner signs with a raw ed25519 scalar rather than an RFC 8032 seed.
// Every signature draws a fresh nonce seed from Rand, so signing the same
// message twice yields different signatures that both verify.
type EdDSASigner struct {
	// Rand defaults to crypto/rand.
	Rand io.Reader
}

// SignEdDSA signs msg with a big-endian ed25519 private scalar using
// crypto/rand for the nonce seed.
func SignEdDSA(privateKey, msg []byte) ([]byte, error) {
	return EdDSASigner{}.Sign(privateKey, msg)
}

// Sign returns R ‖ S.
func (s EdDSASigner) Sign(privateKey, msg []byte) ([]byte, error) {
	if len(privateKey) == 0 {
		return nil, ErrNoPrivateKey
	}
	if len(privateKey) > curve.ScalarSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPrivKey, len(privateKey))
	}
	rnd := s.Rand
	if rnd == nil {
		rnd = rand.Reader
	}

	seed := make([]byte, nonceSeedSize)
	defer curve.Zero(seed)
	if _, err := io.ReadFull(rnd, seed); err != nil {
		return nil, fmt.Errorf("failed to read nonce seed: %w", err)
	}

	prv := curve.Ed25519Scalar(new(big.Int).SetBytes(privateKey))
	prvLE := prv.Bytes()
	defer curve.Zero(prvLE)

	h := sha512.New()
	h.Write(seed)
	h.Write(prvLE)
	h.Write(msg)
	nonce, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		return nil, err
	}

	r := edwards25519.NewIdentityPoint().ScalarBaseMult(nonce).Bytes()
	a := edwards25519.NewIdentityPoint().ScalarBaseMult(prv).Bytes()

	h.Reset()
	h.Write(r)
	h.Write(a)
	h.Write(msg)
	hram, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		return nil, err
	}

	sig := make([]byte, 0, EdDSASignatureSize)
	sig = append(sig, r...)
	sig = append(sig, edwards25519.NewScalar().MultiplyAdd(hram, prv, nonce).Bytes()...)
	totalSignatures.WithLabelValues("eddsa").Inc()
	return sig, nil
}

// VerifyEdDSA checks an R ‖ S signature against a 32 byte ed25519 public key.
func VerifyEdDSA(publicKey, msg, sig []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(sig) != EdDSASignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, msg, sig)
}
