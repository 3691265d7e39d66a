package derivation

import (
	"testing"

	"github.com/strangelove-ventures/horcrux-recovery/extkey"
	"github.com/stretchr/testify/require"
)

func TestSelectKeySet(t *testing.T) {
	keySets := []KeySet{
		{ID: 1, Xpub: testXpub, Fpub: testFpub},
		{ID: 3, Fprv: rotatedFprv, EdDSAMinAccount: 20},
		{ID: 2, Xprv: rotatedXprv, ECDSAMinAccount: 10},
	}

	testCases := []struct {
		name    string
		family  extkey.Family
		account uint32
		id      int
	}{
		{"ecdsa before rotation", extkey.FamilyECDSA, 9, 1},
		{"ecdsa at rotation", extkey.FamilyECDSA, 10, 2},
		{"ecdsa after rotation", extkey.FamilyECDSA, 500, 2},
		{"eddsa skips keyset without eddsa key", extkey.FamilyEdDSA, 15, 1},
		{"eddsa rotated", extkey.FamilyEdDSA, 20, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ks, err := SelectKeySet(keySets, tc.family, tc.account)
			require.NoError(t, err)
			require.Equal(t, tc.id, ks.ID)
		})
	}
}

func TestSelectKeySetErrors(t *testing.T) {
	_, err := SelectKeySet(nil, extkey.FamilyECDSA, 0)
	require.ErrorIs(t, err, ErrExtendedKeyRequired)

	_, err = SelectKeySet([]KeySet{{ID: 4, Xpub: testXpub, ECDSAMinAccount: 1}}, extkey.FamilyECDSA, 0)
	require.ErrorIs(t, err, ErrNoKeySet)
}

func TestDeriveUsesRotatedKeySet(t *testing.T) {
	keySets := []KeySet{
		{ID: 1, Xprv: testXprv},
		{ID: 2, Xprv: rotatedXprv, ECDSAMinAccount: 1},
	}
	e := testEngine()

	old, err := e.Derive(Input{AssetID: "BTC", KeySets: keySets})
	require.NoError(t, err)
	require.Equal(t, 1, old.KeySetID)
	require.Equal(t, btcPub, old.PublicKey)

	rotated, err := e.Derive(Input{AssetID: "BTC", KeySets: keySets, Path: PathInput{Account: 1}})
	require.NoError(t, err)
	require.Equal(t, 2, rotated.KeySetID)

	sameAccountOldKey, err := e.Derive(Input{AssetID: "BTC", KeySets: keySets[:1], Path: PathInput{Account: 1}})
	require.NoError(t, err)
	require.NotEqual(t, sameAccountOldKey.PublicKey, rotated.PublicKey)
}

func TestKeySetExtendedKeyPrefersPrivate(t *testing.T) {
	ks := KeySet{ID: 1, Xprv: testXprv, Xpub: testXpub, Fpub: testFpub}

	k, err := ks.ExtendedKey(extkey.FamilyECDSA)
	require.NoError(t, err)
	require.True(t, k.IsPrivate())

	k, err = ks.ExtendedKey(extkey.FamilyEdDSA)
	require.NoError(t, err)
	require.False(t, k.IsPrivate())
	require.Equal(t, extkey.FamilyEdDSA, k.Family())
}
