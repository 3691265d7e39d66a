// Package extkey encodes and decodes BIP32 style extended keys for both the
// standard secp256k1 versions (xprv/xpub) and the ed25519 versions
// (fprv/fpub).
package extkey

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/strangelove-ventures/horcrux-recovery/internal/curve"
)

// Version is the 4 byte prefix of a serialized extended key.
type Version uint32

const (
	VersionXprv Version = 0x0488ADE4
	VersionXpub Version = 0x0488B21E
	VersionFprv Version = 0x03273a10
	VersionFpub Version = 0x03273e4b
)

// Family is the signature algorithm family an extended key belongs to.
type Family int

const (
	FamilyECDSA Family = iota
	FamilyEdDSA
)

func (f Family) String() string {
	switch f {
	case FamilyECDSA:
		return "ecdsa"
	case FamilyEdDSA:
		return "eddsa"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

const (
	// SerializedLen is the length of an extended key before the checksum.
	SerializedLen = 78
	checksumLen   = 4
	chainCodeLen  = 32
	keyLen        = 33
)

var (
	ErrInvalidExtendedKey = errors.New("invalid extended key")
	ErrInvalidChecksum    = errors.New("extended key checksum mismatch")
	ErrUnknownVersion     = errors.New("unknown extended key version")
	ErrInvalidChainCode   = errors.New("chain code must be 32 bytes")
	ErrInvalidKeyData     = errors.New("invalid extended key data")
)

// ExtendedKey is a decoded extended key.
type ExtendedKey struct {
	Version           Version
	Depth             uint8
	ParentFingerprint uint32
	ChildNumber       uint32
	ChainCode         []byte
	// Key is 33 bytes: 0x00 ‖ scalar for private keys, the compressed point
	// for secp256k1 public keys, 0x00 ‖ point for ed25519 public keys.
	Key []byte
}

func versionFor(family Family, private bool) (Version, error) {
	switch family {
	case FamilyECDSA:
		if private {
			return VersionXprv, nil
		}
		return VersionXpub, nil
	case FamilyEdDSA:
		if private {
			return VersionFprv, nil
		}
		return VersionFpub, nil
	}
	return 0, fmt.Errorf("%w: family %d", ErrUnknownVersion, family)
}

// Family returns the algorithm family of the key version.
func (v Version) Family() (Family, error) {
	switch v {
	case VersionXprv, VersionXpub:
		return FamilyECDSA, nil
	case VersionFprv, VersionFpub:
		return FamilyEdDSA, nil
	}
	return 0, fmt.Errorf("%w: 0x%08x", ErrUnknownVersion, uint32(v))
}

// IsPrivate reports whether the version is a private key version.
func (v Version) IsPrivate() bool {
	return v == VersionXprv || v == VersionFprv
}

// New builds a master extended key (depth, fingerprint and child number
// zero). For private keys key is the 32 byte big-endian scalar, for public
// keys it is the 33 byte compressed secp256k1 point or the 32 byte ed25519
// point.
func New(family Family, private bool, key, chainCode []byte) (*ExtendedKey, error) {
	version, err := versionFor(family, private)
	if err != nil {
		return nil, err
	}
	if len(chainCode) != chainCodeLen {
		return nil, ErrInvalidChainCode
	}

	var keyData []byte
	switch {
	case private:
		if len(key) > curve.ScalarSize {
			return nil, fmt.Errorf("%w: private key is %d bytes", ErrInvalidKeyData, len(key))
		}
		keyData = make([]byte, keyLen)
		copy(keyData[keyLen-len(key):], key)
	case family == FamilyECDSA:
		if len(key) != keyLen {
			return nil, fmt.Errorf("%w: public key is %d bytes", ErrInvalidKeyData, len(key))
		}
		keyData = append([]byte(nil), key...)
	default:
		if len(key) != curve.ScalarSize {
			return nil, fmt.Errorf("%w: public key is %d bytes", ErrInvalidKeyData, len(key))
		}
		keyData = append([]byte{0x00}, key...)
	}

	k := &ExtendedKey{
		Version:   version,
		ChainCode: append([]byte(nil), chainCode...),
		Key:       keyData,
	}
	return k, k.validate()
}

// Encode is a shorthand for New followed by String.
func Encode(family Family, private bool, key, chainCode []byte) (string, error) {
	k, err := New(family, private, key, chainCode)
	if err != nil {
		return "", err
	}
	return k.String(), nil
}

func (k *ExtendedKey) validate() error {
	family, err := k.Version.Family()
	if err != nil {
		return err
	}
	if len(k.ChainCode) != chainCodeLen {
		return ErrInvalidChainCode
	}
	if len(k.Key) != keyLen {
		return fmt.Errorf("%w: key data is %d bytes", ErrInvalidKeyData, len(k.Key))
	}
	switch {
	case k.Version.IsPrivate(), family == FamilyEdDSA:
		if k.Key[0] != 0x00 {
			return fmt.Errorf("%w: expected 0x00 key prefix", ErrInvalidKeyData)
		}
	default:
		if k.Key[0] != 0x02 && k.Key[0] != 0x03 {
			return fmt.Errorf("%w: expected compressed public key", ErrInvalidKeyData)
		}
	}
	return nil
}

// Family returns the algorithm family of the key.
func (k *ExtendedKey) Family() Family {
	f, _ := k.Version.Family()
	return f
}

// IsPrivate reports whether the key holds a private scalar.
func (k *ExtendedKey) IsPrivate() bool {
	return k.Version.IsPrivate()
}

// PrivateKey returns the 32 byte big-endian private scalar, or nil for
// public keys.
func (k *ExtendedKey) PrivateKey() []byte {
	if !k.IsPrivate() {
		return nil
	}
	return append([]byte(nil), k.Key[1:]...)
}

// PublicKey returns the public key bytes: 33 byte compressed secp256k1 or
// 32 byte ed25519. For private keys the public key is computed.
func (k *ExtendedKey) PublicKey() ([]byte, error) {
	if k.IsPrivate() {
		scalar := new(big.Int).SetBytes(k.Key[1:])
		if k.Family() == FamilyEdDSA {
			return curve.Ed25519PublicKey(scalar), nil
		}
		return curve.Secp256k1PublicKey(scalar)
	}
	if k.Family() == FamilyEdDSA {
		return append([]byte(nil), k.Key[1:]...), nil
	}
	return append([]byte(nil), k.Key...), nil
}

// Neuter returns the public counterpart of the key.
func (k *ExtendedKey) Neuter() (*ExtendedKey, error) {
	if !k.IsPrivate() {
		return k, nil
	}
	pub, err := k.PublicKey()
	if err != nil {
		return nil, err
	}
	neutered, err := New(k.Family(), false, pub, k.ChainCode)
	if err != nil {
		return nil, err
	}
	neutered.Depth = k.Depth
	neutered.ParentFingerprint = k.ParentFingerprint
	neutered.ChildNumber = k.ChildNumber
	return neutered, nil
}

// Serialize returns the 78 byte raw form of the key.
func (k *ExtendedKey) Serialize() []byte {
	buf := make([]byte, 0, SerializedLen)
	buf = binary.BigEndian.AppendUint32(buf, uint32(k.Version))
	buf = append(buf, k.Depth)
	buf = binary.BigEndian.AppendUint32(buf, k.ParentFingerprint)
	buf = binary.BigEndian.AppendUint32(buf, k.ChildNumber)
	buf = append(buf, k.ChainCode...)
	buf = append(buf, k.Key...)
	return buf
}

// String returns the base58check encoding of the key.
func (k *ExtendedKey) String() string {
	raw := k.Serialize()
	checksum := chainhash.DoubleHashB(raw)[:checksumLen]
	return base58.Encode(append(raw, checksum...))
}

// Decode parses a base58check encoded extended key.
func Decode(s string) (*ExtendedKey, error) {
	decoded := base58.Decode(s)
	if len(decoded) != SerializedLen+checksumLen {
		return nil, fmt.Errorf("%w: decoded length %d", ErrInvalidExtendedKey, len(decoded))
	}
	raw, checksum := decoded[:SerializedLen], decoded[SerializedLen:]
	if !bytes.Equal(chainhash.DoubleHashB(raw)[:checksumLen], checksum) {
		return nil, ErrInvalidChecksum
	}

	k := &ExtendedKey{
		Version:           Version(binary.BigEndian.Uint32(raw[0:4])),
		Depth:             raw[4],
		ParentFingerprint: binary.BigEndian.Uint32(raw[5:9]),
		ChildNumber:       binary.BigEndian.Uint32(raw[9:13]),
		ChainCode:         append([]byte(nil), raw[13:45]...),
		Key:               append([]byte(nil), raw[45:78]...),
	}
	if err := k.validate(); err != nil {
		return nil, err
	}
	return k, nil
}

// PublicFromPrivate converts an xprv or fprv into the matching xpub or fpub.
// Public keys are returned unchanged.
func PublicFromPrivate(s string) (string, error) {
	k, err := Decode(s)
	if err != nil {
		return "", err
	}
	pub, err := k.Neuter()
	if err != nil {
		return "", err
	}
	return pub.String(), nil
}
