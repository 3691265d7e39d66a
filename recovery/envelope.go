package recovery

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/strangelove-ventures/horcrux-recovery/internal/curve"
	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/pbkdf2"
)

const (
	mobileKDFIterations = 10000
	mobileKeyLen        = 32

	// only plaintexts of this exact size carry PKCS padding
	paddedMobileShareLen = 48
	taggedShareLen       = 36
	shareTagLen          = 4
)

// ParseRSAPrivateKey parses a PEM encoded RSA private key. Encrypted keys,
// both legacy "Proc-Type: 4,ENCRYPTED" PEM and encrypted PKCS#8, are
// decrypted with passphrase.
func ParseRSAPrivateKey(pemBytes []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidRSAPrivateKey)
	}

	der := block.Bytes
	switch {
	case block.Type == "ENCRYPTED PRIVATE KEY":
		key, err := pkcs8.ParsePKCS8PrivateKeyRSA(der, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryptRSAPrivateKey, err)
		}
		return validateRSAKey(key)
	case x509.IsEncryptedPEMBlock(block): //nolint:staticcheck
		var err error
		if der, err = x509.DecryptPEMBlock(block, []byte(passphrase)); err != nil { //nolint:staticcheck
			return nil, fmt.Errorf("%w: %v", ErrDecryptRSAPrivateKey, err)
		}
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return validateRSAKey(key)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRSAPrivateKey, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidRSAPrivateKey)
	}
	return validateRSAKey(key)
}

func validateRSAKey(key *rsa.PrivateKey) (*rsa.PrivateKey, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRSAPrivateKey, err)
	}
	return key, nil
}

// DecryptMobileShare decrypts the owner share with the mobile passphrase.
// The wrapping key is PBKDF2-SHA1(passphrase, userId) and the share is
// AES-256-CBC encrypted under a zero IV.
func DecryptMobileShare(passphrase string, share MobileShare) ([]byte, error) {
	ct := share.EncryptedKey
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: %s: ciphertext is %d bytes", ErrDecryptMobileKey, share.FileName, len(ct))
	}

	key := pbkdf2.Key([]byte(passphrase), []byte(share.UserID), mobileKDFIterations, mobileKeyLen, sha1.New)
	defer curve.Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptMobileKey, err)
	}
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(plain, ct)

	if len(plain) != paddedMobileShareLen {
		return plain, nil
	}
	unpadded, err := unpad(plain, aes.BlockSize)
	if err != nil {
		curve.Zero(plain)
		return nil, fmt.Errorf("%w: %s: %v", ErrDecryptMobileKey, share.FileName, err)
	}
	return unpadded, nil
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 {
		return data, nil
	}
	if n > blockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding length %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}

// mobileShareValue unwraps a decrypted mobile payload. The payload is the
// raw share, a JSON document holding the share as hex under "key", or a
// 36 byte share prefixed by a little-endian algorithm id.
func mobileShareValue(plain []byte, algo Algorithm) (*big.Int, error) {
	data := plain

	var wrapped struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(bytes.NewReader(plain)).Decode(&wrapped); err == nil && wrapped.Key != "" {
		decoded, err := hex.DecodeString(wrapped.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: mobile key share: %v", ErrInvalidRecoveryKit, err)
		}
		defer curve.Zero(decoded)
		data = decoded
	}

	if len(data) == taggedShareLen {
		id := int32(binary.LittleEndian.Uint32(data[:shareTagLen]))
		if id != algo.tagID() {
			return nil, fmt.Errorf("%w: share tagged %d for %s key", ErrUnknownAlgorithm, id, algo)
		}
		data = data[shareTagLen:]
	}

	return shareValue(data)
}

// DecryptCosignerShare decrypts a cosigner share with the recovery RSA key
// using RSA-OAEP with SHA-1.
func DecryptCosignerShare(key *rsa.PrivateKey, share CosignerShare) (*big.Int, error) {
	plain, err := rsa.DecryptOAEP(sha1.New(), nil, key, share.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecoveryKit, share.FileName, err)
	}
	defer curve.Zero(plain)
	return shareValue(plain)
}

func shareValue(data []byte) (*big.Int, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty key share", ErrInvalidRecoveryKit)
	}
	return new(big.Int).SetBytes(data), nil
}

// DecryptPassphrase recovers an auto generated mobile passphrase from the
// RSA_PASSPHRASE entry using the mobile RSA key (RSA-OAEP, SHA-256). The
// passphrase is the hex encoding of the plaintext.
func DecryptPassphrase(key *rsa.PrivateKey, entry []byte) (string, error) {
	var raw struct {
		EncryptedKey string `json:"encryptedKey"`
	}
	if err := json.Unmarshal(entry, &raw); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRecoveryKit, passphraseFileName, err)
	}
	ct, err := hex.DecodeString(raw.EncryptedKey)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRecoveryKit, passphraseFileName, err)
	}
	plain, err := rsa.DecryptOAEP(sha256.New(), nil, key, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDecryptMobileKey, passphraseFileName, err)
	}
	defer curve.Zero(plain)
	return hex.EncodeToString(plain), nil
}
