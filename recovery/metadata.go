package recovery

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/strangelove-ventures/horcrux-recovery/extkey"
)

const (
	// DefaultKeySetID is the keyset keys belong to when metadata does not say.
	DefaultKeySetID = 1

	walletMasterType = "NON_CUSTODIAL_WALLET_MASTER"
	cloudCosigner    = "cloud"
)

// KeyMetadata describes one signing key of the recovery kit.
type KeyMetadata struct {
	KeyID     string
	PublicKey []byte
	Algorithm Algorithm
	ChainCode []byte
	KeySetID  int
}

// MasterKeyCosigner is one cosigner holding a share of an NCW master key.
type MasterKeyCosigner struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// MasterKeyMetadata describes a non-custodial wallet master key.
type MasterKeyMetadata struct {
	KeyID      string
	Type       string
	WalletSeed []byte
	AssetSeed  []byte
	Cosigners  []MasterKeyCosigner
}

// Metadata is the normalized contents of metadata.json.
type Metadata struct {
	Keys       map[string]*KeyMetadata
	MasterKeys map[string]*MasterKeyMetadata

	// minAccounts maps family -> keyset id -> first account served by the keyset.
	minAccounts map[extkey.Family]map[int]int
}

type rawMetadata struct {
	ChainCode     string                  `json:"chainCode"`
	TenantID      string                  `json:"tenantId"`
	Keys          map[string]rawKey       `json:"keys"`
	KeysetMapping []rawKeySetMapping      `json:"keysetMapping"`
	MasterKeys    map[string]rawMasterKey `json:"masterKeys"`
	KeyID         string                  `json:"keyId"`
	PublicKey     string                  `json:"publicKey"`
}

type rawKey struct {
	PublicKey string `json:"publicKey"`
	Algo      string `json:"algo"`
	Algorithm string `json:"algorithm"`
	ChainCode string `json:"chainCode"`
	KeySetID  *int   `json:"keysetId"`
}

type rawKeySetMapping struct {
	KeySetID   int    `json:"keysetId"`
	Algo       string `json:"algo"`
	MinAccount int    `json:"minAccount"`
}

type rawMasterKey struct {
	Type       string              `json:"type"`
	WalletSeed string              `json:"walletSeed"`
	AssetSeed  string              `json:"assetSeed"`
	Cosigners  []MasterKeyCosigner `json:"cosigners"`
}

// ParseMetadata parses metadata.json. Both the multi key format and the
// legacy single ECDSA key format are accepted.
func ParseMetadata(data []byte) (*Metadata, error) {
	var raw rawMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: metadata.json: %v", ErrInvalidRecoveryKit, err)
	}

	keys := raw.Keys
	if keys == nil {
		if raw.KeyID == "" && raw.MasterKeys == nil {
			return nil, fmt.Errorf("%w: metadata.json has no keys", ErrInvalidRecoveryKit)
		}
		keys = make(map[string]rawKey)
		if raw.KeyID != "" {
			keys[raw.KeyID] = rawKey{PublicKey: raw.PublicKey, Algo: nameECDSASecp256k1}
		}
	}

	md := &Metadata{
		Keys:        make(map[string]*KeyMetadata, len(keys)),
		MasterKeys:  make(map[string]*MasterKeyMetadata, len(raw.MasterKeys)),
		minAccounts: make(map[extkey.Family]map[int]int),
	}

	for keyID, k := range keys {
		name := k.Algo
		if name == "" {
			name = k.Algorithm
		}
		algo, err := ParseAlgorithm(name)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", keyID, err)
		}

		chainCodeHex := raw.ChainCode
		if k.ChainCode != "" {
			chainCodeHex = k.ChainCode
		}
		chainCode, err := hex.DecodeString(chainCodeHex)
		if err != nil || len(chainCode) != 32 {
			return nil, fmt.Errorf("key %s: %w", keyID, ErrUnknownChainCode)
		}

		pub, err := hex.DecodeString(k.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: key %s public key: %v", ErrInvalidRecoveryKit, keyID, err)
		}

		keySetID := DefaultKeySetID
		if k.KeySetID != nil {
			keySetID = *k.KeySetID
		}

		md.Keys[keyID] = &KeyMetadata{
			KeyID:     keyID,
			PublicKey: pub,
			Algorithm: algo,
			ChainCode: chainCode,
			KeySetID:  keySetID,
		}
	}

	if len(raw.KeysetMapping) == 0 {
		md.minAccounts[extkey.FamilyECDSA] = map[int]int{DefaultKeySetID: 0}
		md.minAccounts[extkey.FamilyEdDSA] = map[int]int{DefaultKeySetID: 0}
	}
	for _, m := range raw.KeysetMapping {
		algo, err := ParseAlgorithm(m.Algo)
		if err != nil {
			return nil, fmt.Errorf("keyset %d: %w", m.KeySetID, err)
		}
		family := algo.Family()
		if md.minAccounts[family] == nil {
			md.minAccounts[family] = make(map[int]int)
		}
		md.minAccounts[family][m.KeySetID] = m.MinAccount
	}

	for keyID, mk := range raw.MasterKeys {
		walletSeed, err := hex.DecodeString(mk.WalletSeed)
		if err != nil {
			return nil, fmt.Errorf("%w: master key %s wallet seed: %v", ErrInvalidRecoveryKit, keyID, err)
		}
		assetSeed, err := hex.DecodeString(mk.AssetSeed)
		if err != nil {
			return nil, fmt.Errorf("%w: master key %s asset seed: %v", ErrInvalidRecoveryKit, keyID, err)
		}
		md.MasterKeys[keyID] = &MasterKeyMetadata{
			KeyID:      keyID,
			Type:       mk.Type,
			WalletSeed: walletSeed,
			AssetSeed:  assetSeed,
			Cosigners:  mk.Cosigners,
		}
	}

	return md, nil
}

// MinAccount returns the first account served by keyset id for the family.
func (md *Metadata) MinAccount(family extkey.Family, keySetID int) int {
	return md.minAccounts[family][keySetID]
}

// KeyIDs returns the signing key ids in sorted order.
func (md *Metadata) KeyIDs() []string {
	ids := make([]string, 0, len(md.Keys))
	for id := range md.Keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// onlyKeyID returns the key id of a single key kit.
func (md *Metadata) onlyKeyID() (string, bool) {
	if len(md.Keys) != 1 {
		return "", false
	}
	for id := range md.Keys {
		return id, true
	}
	return "", false
}
