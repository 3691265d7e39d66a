package derivation

import (
	"fmt"
	"sort"

	"github.com/strangelove-ventures/horcrux-recovery/extkey"
)

// KeySet is one generation of master extended keys. A newer keyset takes over
// from its minimum account number onward.
type KeySet struct {
	ID              int
	Xpub            string
	Fpub            string
	Xprv            string
	Fprv            string
	ECDSAMinAccount uint32
	EdDSAMinAccount uint32
}

func (ks KeySet) minAccount(f extkey.Family) uint32 {
	if f == extkey.FamilyEdDSA {
		return ks.EdDSAMinAccount
	}
	return ks.ECDSAMinAccount
}

// keys returns the private and public extended key strings of a family.
func (ks KeySet) keys(f extkey.Family) (private, public string) {
	if f == extkey.FamilyEdDSA {
		return ks.Fprv, ks.Fpub
	}
	return ks.Xprv, ks.Xpub
}

// HasFamily reports whether the keyset carries any key of the family.
func (ks KeySet) HasFamily(f extkey.Family) bool {
	prv, pub := ks.keys(f)
	return prv != "" || pub != ""
}

// ExtendedKey picks the key a derivation of the family starts from: the
// private key when present, otherwise the public key.
func (ks KeySet) ExtendedKey(f extkey.Family) (*extkey.ExtendedKey, error) {
	prvName, pubName := "xprv", "xpub"
	notValid := ErrNotXprvOrXpub
	if f == extkey.FamilyEdDSA {
		prvName, pubName = "fprv", "fpub"
		notValid = ErrNotFprvOrFpub
	}

	prv, pub := ks.keys(f)
	s, wantPrivate := prv, true
	if s == "" {
		s, wantPrivate = pub, false
	}
	if s == "" {
		return nil, fmt.Errorf("%s %w (%s or %s)", f, ErrExtendedKeyRequired, prvName, pubName)
	}

	key, err := extkey.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", notValid, err)
	}
	if key.Family() != f || key.IsPrivate() != wantPrivate {
		return nil, notValid
	}
	return key, nil
}

// SelectKeySet returns the keyset with the highest id that carries a key of
// the family and whose minimum account does not exceed account.
func SelectKeySet(keySets []KeySet, f extkey.Family, account uint32) (KeySet, error) {
	candidates := make([]KeySet, 0, len(keySets))
	for _, ks := range keySets {
		if ks.HasFamily(f) {
			candidates = append(candidates, ks)
		}
	}
	if len(candidates) == 0 {
		return KeySet{}, fmt.Errorf("%s %w", f, ErrExtendedKeyRequired)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID > candidates[j].ID })
	for _, ks := range candidates {
		if ks.minAccount(f) <= account {
			return ks, nil
		}
	}
	return KeySet{}, fmt.Errorf("%w: %s account %d", ErrNoKeySet, f, account)
}
