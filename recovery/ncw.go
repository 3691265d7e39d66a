package recovery

import (
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"

	"github.com/google/uuid"
	"github.com/strangelove-ventures/horcrux-recovery/internal/curve"
)

const (
	masterKeyLen = 32
	walletIDLen  = 36

	// walletChildNum is the hardened child index wallet shares are derived at.
	walletChildNum uint32 = 1 << 31
)

// WalletMaster holds the recovered non-custodial wallet master material.
type WalletMaster struct {
	WalletSeed           string            `json:"walletSeed" yaml:"walletSeed"`
	AssetSeed            string            `json:"assetSeed" yaml:"assetSeed"`
	MasterKeyForCosigner map[string]string `json:"masterKeyForCosigner" yaml:"masterKeyForCosigner"`
}

// RecoverWalletMaster decrypts the cloud cosigner shares of the single
// NON_CUSTODIAL_WALLET_MASTER key in the archive.
func RecoverWalletMaster(a *Archive, key *rsa.PrivateKey) (*WalletMaster, error) {
	var masters []string
	for id, mk := range a.Metadata.MasterKeys {
		if mk.Type == walletMasterType {
			masters = append(masters, id)
		}
	}
	switch len(masters) {
	case 0:
		return nil, ErrMissingWalletMasterKeyID
	case 1:
	default:
		sort.Strings(masters)
		return nil, fmt.Errorf("%w: %v", ErrAmbiguousWalletMasterKeyID, masters)
	}

	mk := a.Metadata.MasterKeys[masters[0]]
	wm := &WalletMaster{
		WalletSeed:           hex.EncodeToString(mk.WalletSeed),
		AssetSeed:            hex.EncodeToString(mk.AssetSeed),
		MasterKeyForCosigner: make(map[string]string),
	}

	for _, cosigner := range mk.Cosigners {
		if cosigner.Type != cloudCosigner {
			continue
		}
		playerID, err := MasterKeyPlayerID(cosigner.ID)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("%d_%s", playerID, mk.KeyID)
		files := a.MasterKeyShares[name]
		switch len(files) {
		case 0:
			return nil, fmt.Errorf("%w: %s", ErrMissingMasterKeyFile, name)
		case 1:
		default:
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMasterKeyFile, name)
		}

		masterKey, err := rsa.DecryptOAEP(sha1.New(), nil, key, files[0].Data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecryptRSAPrivateKey, name, err)
		}
		if len(masterKey) != masterKeyLen {
			return nil, fmt.Errorf("%w: %s is %d bytes", ErrInvalidMasterKey, name, len(masterKey))
		}
		wm.MasterKeyForCosigner[cosigner.ID] = hex.EncodeToString(masterKey)
	}

	totalWalletMastersRecovered.Inc()
	return wm, nil
}

// WalletShare is the share of one cosigner for a non-custodial wallet.
type WalletShare struct {
	Cosigner string `json:"cosigner" yaml:"cosigner"`
	Share    string `json:"MPC_CMP_ECDSA_SECP256K1" yaml:"MPC_CMP_ECDSA_SECP256K1"`
}

// WalletShares are the derived signing key shares of one non-custodial
// wallet. ChainCode is the wallet's asset chain code.
type WalletShares struct {
	WalletID  string        `json:"walletId" yaml:"walletId"`
	Algorithm string        `json:"algorithm" yaml:"algorithm"`
	ChainCode string        `json:"chainCode" yaml:"chainCode"`
	Shares    []WalletShare `json:"shares" yaml:"shares"`
}

func validateWalletID(walletID string) error {
	if len(walletID) != walletIDLen {
		return fmt.Errorf("%w, must be a UUID: %q", ErrInvalidWalletID, walletID)
	}
	if _, err := uuid.Parse(walletID); err != nil {
		return fmt.Errorf("%w, must be a UUID: %q", ErrInvalidWalletID, walletID)
	}
	return nil
}

// AssetChainCode returns SHA256(walletId ‖ assetSeed) as hex.
func (wm *WalletMaster) AssetChainCode(walletID string) (string, error) {
	if err := validateWalletID(walletID); err != nil {
		return "", err
	}
	assetSeed, err := hex.DecodeString(wm.AssetSeed)
	if err != nil {
		return "", fmt.Errorf("%w: asset seed: %v", ErrInvalidRecoveryKit, err)
	}
	h := sha256.New()
	h.Write([]byte(walletID))
	h.Write(assetSeed)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DeriveWalletShares derives the cosigner shares of a non-custodial wallet
// from the recovered master keys. Only MPC_ECDSA_SECP256K1 wallets exist.
func (wm *WalletMaster) DeriveWalletShares(walletID string, algo Algorithm) (*WalletShares, error) {
	if err := validateWalletID(walletID); err != nil {
		return nil, err
	}
	if algo != AlgorithmECDSASecp256k1 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedWalletAlgorithm, algo)
	}
	walletSeed, err := hex.DecodeString(wm.WalletSeed)
	if err != nil {
		return nil, fmt.Errorf("%w: wallet seed: %v", ErrInvalidRecoveryKit, err)
	}
	assetChainCode, err := wm.AssetChainCode(walletID)
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	h.Write([]byte(walletID))
	h.Write(walletSeed)
	chainCode := h.Sum(nil)

	cosigners := make([]string, 0, len(wm.MasterKeyForCosigner))
	for id := range wm.MasterKeyForCosigner {
		cosigners = append(cosigners, id)
	}
	sort.Strings(cosigners)

	out := &WalletShares{
		WalletID:  walletID,
		Algorithm: algo.String(),
		ChainCode: assetChainCode,
		Shares:    make([]WalletShare, 0, len(cosigners)),
	}
	for _, id := range cosigners {
		masterKey, err := hex.DecodeString(wm.MasterKeyForCosigner[id])
		if err != nil || len(masterKey) != masterKeyLen {
			return nil, fmt.Errorf("%w: master key of cosigner %s is not %d bytes", ErrInvalidMasterKey, id, masterKeyLen)
		}
		share := walletShare(chainCode, masterKey)
		curve.Zero(masterKey)
		out.Shares = append(out.Shares, WalletShare{Cosigner: id, Share: hex.EncodeToString(share)})
		curve.Zero(share)
	}

	totalWalletSharesDerived.Add(float64(len(out.Shares)))
	return out, nil
}

// walletShare is SHA512(pad32((masterKey + offset) mod n)) mod n, where offset
// is HMAC-SHA512(chainCode, 0x00 ‖ masterKey ‖ walletChildNum)[:32].
func walletShare(chainCode, masterKey []byte) []byte {
	var childNum [4]byte
	binary.BigEndian.PutUint32(childNum[:], walletChildNum)

	mac := hmac.New(sha512.New, chainCode)
	mac.Write([]byte{0x00})
	mac.Write(masterKey)
	mac.Write(childNum[:])
	sum := mac.Sum(nil)
	defer curve.Zero(sum)

	base := new(big.Int).SetBytes(masterKey)
	defer curve.ZeroInt(base)
	derived := new(big.Int).SetBytes(sum[:32])
	defer curve.ZeroInt(derived)
	derived.Add(derived, base).Mod(derived, curve.Secp256k1Order)

	derivedBytes := curve.PadScalar(derived)
	defer curve.Zero(derivedBytes)
	expansion := sha512.Sum512(derivedBytes)
	defer curve.Zero(expansion[:])

	share := new(big.Int).SetBytes(expansion[:])
	defer curve.ZeroInt(share)
	return curve.PadScalar(share.Mod(share, curve.Secp256k1Order))
}
