// Package recovery rebuilds master extended keys from a disaster recovery
// kit: a zip holding metadata, device held shares and cosigner shares
// encrypted to a recovery RSA key.
package recovery

import (
	"crypto/rsa"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/cometbft/cometbft/libs/log"
	"github.com/strangelove-ventures/horcrux-recovery/extkey"
	"github.com/strangelove-ventures/horcrux-recovery/internal/curve"
	"golang.org/x/sync/errgroup"
)

const (
	originMobile   = "mobile"
	originCosigner = "cosigner"
)

// Options are the credentials and switches of one recovery.
type Options struct {
	// RSAPrivateKey is the PEM encoded recovery RSA key.
	RSAPrivateKey []byte
	RSAPassphrase string

	// MobilePassphrase decrypts device shares. When empty the passphrase is
	// recovered from RSA_PASSPHRASE with MobileRSAPrivateKey.
	MobilePassphrase    string
	MobileRSAPrivateKey []byte
	// MobileRSAPassphrase defaults to RSAPassphrase.
	MobileRSAPassphrase string

	// RecoverPrivateKeys includes xprv/fprv in the result.
	RecoverPrivateKeys bool

	// RecoverNCW also recovers the non-custodial wallet master.
	RecoverNCW bool
	// OnlyNCW skips signing keys and recovers the wallet master only.
	OnlyNCW bool
}

// RecoveredKeySet are the master keys of one keyset.
type RecoveredKeySet struct {
	KeySetID        int    `json:"keysetId" yaml:"keysetId"`
	Xpub            string `json:"xpub,omitempty" yaml:"xpub,omitempty"`
	Fpub            string `json:"fpub,omitempty" yaml:"fpub,omitempty"`
	Xprv            string `json:"xprv,omitempty" yaml:"xprv,omitempty"`
	Fprv            string `json:"fprv,omitempty" yaml:"fprv,omitempty"`
	ChainCodeECDSA  string `json:"chainCodeEcdsa,omitempty" yaml:"chainCodeEcdsa,omitempty"`
	ChainCodeEdDSA  string `json:"chainCodeEddsa,omitempty" yaml:"chainCodeEddsa,omitempty"`
	ECDSAExists     bool   `json:"ecdsaExists" yaml:"ecdsaExists"`
	EdDSAExists     bool   `json:"eddsaExists" yaml:"eddsaExists"`
	ECDSAMinAccount int    `json:"ecdsaMinAccount" yaml:"ecdsaMinAccount"`
	EdDSAMinAccount int    `json:"eddsaMinAccount" yaml:"eddsaMinAccount"`

	ecdsaVerified bool
	eddsaVerified bool
}

// Result is the output of a recovery.
type Result struct {
	KeySets      map[int]*RecoveredKeySet `json:"keysets,omitempty" yaml:"keysets,omitempty"`
	WalletMaster *WalletMaster            `json:"ncwWalletMaster,omitempty" yaml:"ncwWalletMaster,omitempty"`
}

// Primary returns the default keyset, or the lowest keyset id present.
func (r *Result) Primary() *RecoveredKeySet {
	if ks, ok := r.KeySets[DefaultKeySetID]; ok {
		return ks
	}
	ids := r.KeySetIDs()
	if len(ids) == 0 {
		return nil
	}
	return r.KeySets[ids[0]]
}

// KeySetIDs returns the recovered keyset ids in ascending order.
func (r *Result) KeySetIDs() []int {
	ids := make([]int, 0, len(r.KeySets))
	for id := range r.KeySets {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Recoverer reconstructs keys from recovery kits. It holds no state
// between calls.
type Recoverer struct {
	logger log.Logger
}

// NewRecoverer returns a Recoverer logging to logger.
func NewRecoverer(logger log.Logger) *Recoverer {
	return &Recoverer{logger: logger}
}

// RecoverKeys recovers a kit without logging.
func RecoverKeys(archive []byte, opts Options) (*Result, error) {
	return NewRecoverer(log.NewNopLogger()).Recover(archive, opts)
}

// Recover reconstructs the master keys held in the archive.
func (r *Recoverer) Recover(archive []byte, opts Options) (*Result, error) {
	a, err := ReadArchive(archive)
	if err != nil {
		return nil, err
	}

	rsaKey, err := ParseRSAPrivateKey(opts.RSAPrivateKey, opts.RSAPassphrase)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if !opts.OnlyNCW {
		keys, err := r.reconstructKeys(a, rsaKey, opts)
		if err != nil {
			return nil, err
		}
		res.KeySets, err = assembleKeySets(a.Metadata, keys, opts.RecoverPrivateKeys)
		wipeKeys(keys)
		if err != nil {
			return nil, err
		}
	}

	if opts.RecoverNCW || opts.OnlyNCW {
		if res.WalletMaster, err = RecoverWalletMaster(a, rsaKey); err != nil {
			return nil, err
		}
		r.logger.Info("Recovered wallet master", "cosigners", len(res.WalletMaster.MasterKeyForCosigner))
	}

	return res, nil
}

func (r *Recoverer) mobilePassphrase(a *Archive, opts Options) (string, error) {
	if opts.MobilePassphrase != "" {
		return opts.MobilePassphrase, nil
	}
	if a.EncryptedPassphrase == nil {
		return "", ErrNoRSAPassphrase
	}
	if len(opts.MobileRSAPrivateKey) == 0 {
		return "", ErrMissingMobilePassphrase
	}
	pass := opts.MobileRSAPassphrase
	if pass == "" {
		pass = opts.RSAPassphrase
	}
	mobileKey, err := ParseRSAPrivateKey(opts.MobileRSAPrivateKey, pass)
	if err != nil {
		return "", err
	}
	r.logger.Debug("Recovering auto generated mobile passphrase")
	return DecryptPassphrase(mobileKey, a.EncryptedPassphrase)
}

// keyShares are the encrypted shares of one key.
type keyShares struct {
	md       *KeyMetadata
	mobile   []MobileShare
	cosigner []CosignerShare
}

func (r *Recoverer) reconstructKeys(a *Archive, rsaKey *rsa.PrivateKey, opts Options) ([]*ReconstructedKey, error) {
	byKey := make(map[string]*keyShares, len(a.Metadata.Keys))
	for id, md := range a.Metadata.Keys {
		byKey[id] = &keyShares{md: md}
	}
	for _, s := range a.MobileShares {
		byKey[s.KeyID].mobile = append(byKey[s.KeyID].mobile, s)
	}
	for _, s := range a.CosignerShares {
		byKey[s.KeyID].cosigner = append(byKey[s.KeyID].cosigner, s)
	}

	keyIDs := a.Metadata.KeyIDs()
	for _, id := range keyIDs {
		if len(byKey[id].mobile) == 0 && len(byKey[id].cosigner) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrKeyIDMissing, id)
		}
	}

	var passphrase string
	if len(a.MobileShares) > 0 {
		var err error
		if passphrase, err = r.mobilePassphrase(a, opts); err != nil {
			return nil, err
		}
	}

	keys := make([]*ReconstructedKey, len(keyIDs))
	var eg errgroup.Group
	for i, id := range keyIDs {
		i, ks := i, byKey[id]
		eg.Go(func() (err error) {
			keys[i], err = r.reconstruct(ks, rsaKey, passphrase)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		wipeKeys(keys)
		return nil, err
	}
	return keys, nil
}

func (r *Recoverer) reconstruct(ks *keyShares, rsaKey *rsa.PrivateKey, passphrase string) (*ReconstructedKey, error) {
	md := ks.md
	shares := make([]PlayerShare, 0, len(ks.mobile)+len(ks.cosigner))

	for _, s := range ks.mobile {
		plain, err := DecryptMobileShare(passphrase, s)
		if err != nil {
			return nil, err
		}
		value, err := mobileShareValue(plain, md.Algorithm)
		curve.Zero(plain)
		if err != nil {
			return nil, err
		}
		playerID, err := DevicePlayerID(s.DeviceID)
		if err != nil {
			return nil, err
		}
		shares = append(shares, PlayerShare{PlayerID: playerID, Value: value})
		totalSharesDecrypted.WithLabelValues(originMobile).Inc()
	}

	for _, s := range ks.cosigner {
		value, err := DecryptCosignerShare(rsaKey, s)
		if err != nil {
			return nil, err
		}
		playerID, err := CloudPlayerID(md.KeyID, s.CosignerID)
		if err != nil {
			return nil, err
		}
		shares = append(shares, PlayerShare{PlayerID: playerID, Value: value})
		totalSharesDecrypted.WithLabelValues(originCosigner).Inc()
	}

	key, computed, err := reconstructKey(md, shares)
	for _, s := range shares {
		curve.ZeroInt(s.Value)
	}
	if err != nil {
		return nil, err
	}

	if !key.Valid() {
		totalPublicKeyMismatches.WithLabelValues(md.Algorithm.String()).Inc()
		r.logger.Error(
			"Failed to recover key, public key mismatch",
			"key_id", md.KeyID,
			"algorithm", md.Algorithm,
			"expected", hex.EncodeToString(md.PublicKey),
			"got", hex.EncodeToString(computed),
		)
		return key, nil
	}

	totalKeysRecovered.WithLabelValues(md.Algorithm.String()).Inc()
	r.logger.Info(
		"Recovered key",
		"key_id", md.KeyID,
		"algorithm", md.Algorithm,
		"keyset", md.KeySetID,
		"shares", len(shares),
	)
	return key, nil
}

// wipeKeys zeroes the reconstructed private scalars once they are encoded.
func wipeKeys(keys []*ReconstructedKey) {
	for _, k := range keys {
		if k != nil {
			curve.ZeroInt(k.PrivateKey)
		}
	}
}

func assembleKeySets(md *Metadata, keys []*ReconstructedKey, withPrivate bool) (map[int]*RecoveredKeySet, error) {
	// legacy algorithms sort before CMP so they win within a keyset
	sorted := append([]*ReconstructedKey(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Algorithm != sorted[j].Algorithm {
			return sorted[i].Algorithm < sorted[j].Algorithm
		}
		return sorted[i].KeyID < sorted[j].KeyID
	})

	keySets := make(map[int]*RecoveredKeySet)
	for _, k := range sorted {
		ks, ok := keySets[k.KeySetID]
		if !ok {
			ks = &RecoveredKeySet{
				KeySetID:        k.KeySetID,
				ECDSAMinAccount: md.MinAccount(extkey.FamilyECDSA, k.KeySetID),
				EdDSAMinAccount: md.MinAccount(extkey.FamilyEdDSA, k.KeySetID),
			}
			keySets[k.KeySetID] = ks
		}
		if err := ks.add(k, withPrivate); err != nil {
			return nil, err
		}
	}
	return keySets, nil
}

func (ks *RecoveredKeySet) add(k *ReconstructedKey, withPrivate bool) error {
	family := k.Algorithm.Family()
	exists, verified := ks.ECDSAExists, ks.ecdsaVerified
	if family == extkey.FamilyEdDSA {
		exists, verified = ks.EdDSAExists, ks.eddsaVerified
	}
	// a verified key is never replaced, an unverified one only by a verified key
	if verified || (exists && !k.Valid()) {
		return nil
	}

	pub, err := extkey.Encode(family, false, k.PublicKey, k.ChainCode)
	if err != nil {
		return fmt.Errorf("%w: key %s: %v", ErrInvalidRecoveryKit, k.KeyID, err)
	}
	var prv string
	if withPrivate && k.Valid() {
		scalar := curve.PadScalar(k.PrivateKey)
		prv, err = extkey.Encode(family, true, scalar, k.ChainCode)
		curve.Zero(scalar)
		if err != nil {
			return err
		}
	}

	chainCode := hex.EncodeToString(k.ChainCode)
	if family == extkey.FamilyEdDSA {
		ks.Fpub, ks.Fprv, ks.ChainCodeEdDSA = pub, prv, chainCode
		ks.EdDSAExists, ks.eddsaVerified = true, k.Valid()
	} else {
		ks.Xpub, ks.Xprv, ks.ChainCodeECDSA = pub, prv, chainCode
		ks.ECDSAExists, ks.ecdsaVerified = true, k.Valid()
	}
	return nil
}
