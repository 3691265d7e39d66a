package recovery

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"
)

var errNoShares = errors.New("no shares to reconstruct")

// PlayerShare is one decrypted share of a key.
type PlayerShare struct {
	PlayerID uint64
	Value    *big.Int
}

// ReconstructedKey is the result of combining the shares of one key.
type ReconstructedKey struct {
	KeyID     string
	Algorithm Algorithm
	KeySetID  int
	ChainCode []byte

	// PublicKey is the metadata public key.
	PublicKey []byte

	// PrivateKey is nil when the combined scalar did not match PublicKey.
	PrivateKey *big.Int
}

// Valid reports whether the private key was recovered and verified.
func (k *ReconstructedKey) Valid() bool {
	return k.PrivateKey != nil
}

// CombineShares combines all shares of one key into the private scalar.
// Shamir shares are weighted by their Lagrange coefficient at zero, CMP
// shares are summed.
func CombineShares(algo Algorithm, shares []PlayerShare) (*big.Int, error) {
	if len(shares) == 0 {
		return nil, errNoShares
	}

	sorted := append([]PlayerShare(nil), shares...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PlayerID < sorted[j].PlayerID })

	n := algo.Order()
	ids := make([]*big.Int, len(sorted))
	for i, s := range sorted {
		if i > 0 && s.PlayerID == sorted[i-1].PlayerID {
			return nil, fmt.Errorf("%w: duplicate player id %d", ErrInvalidRecoveryKit, s.PlayerID)
		}
		ids[i] = new(big.Int).SetUint64(s.PlayerID)
	}

	priv := new(big.Int)
	term := new(big.Int)
	for i, s := range sorted {
		term.Set(s.Value)
		if !algo.IsCMP() {
			term.Mul(term, lagrangeCoefficient(ids[i], ids, n))
		}
		priv.Add(priv, term).Mod(priv, n)
	}
	return priv, nil
}

// lagrangeCoefficient is L_i = prod_{j != i} j * (j - i)^-1 mod n, with the
// inverse computed as x^(n-2) mod n.
func lagrangeCoefficient(id *big.Int, ids []*big.Int, n *big.Int) *big.Int {
	exp := new(big.Int).Sub(n, big.NewInt(2))
	coef := big.NewInt(1)
	diff := new(big.Int)
	for _, j := range ids {
		if j.Cmp(id) == 0 {
			continue
		}
		diff.Sub(j, id).Mod(diff, n)
		coef.Mul(coef, j)
		coef.Mul(coef, diff.Exp(diff, exp, n))
		coef.Mod(coef, n)
	}
	return coef
}

// reconstructKey combines shares and checks the result against the
// metadata public key. On mismatch the returned key carries no private
// scalar. computed is the public key of the combined scalar.
func reconstructKey(md *KeyMetadata, shares []PlayerShare) (key *ReconstructedKey, computed []byte, err error) {
	priv, err := CombineShares(md.Algorithm, shares)
	if err != nil {
		return nil, nil, fmt.Errorf("key %s: %w", md.KeyID, err)
	}

	key = &ReconstructedKey{
		KeyID:     md.KeyID,
		Algorithm: md.Algorithm,
		KeySetID:  md.KeySetID,
		ChainCode: md.ChainCode,
		PublicKey: md.PublicKey,
	}

	computed, err = md.Algorithm.PublicKey(priv)
	if err == nil && bytes.Equal(computed, md.PublicKey) {
		key.PrivateKey = priv
	}
	return key, computed, nil
}
