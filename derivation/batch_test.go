package derivation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveRange(t *testing.T) {
	e := testEngine()
	in := Input{AssetID: "SOL", KeySets: []KeySet{{ID: 1, Fpub: testFpub}}, Path: PathInput{Account: 0}}

	wallets, err := e.DeriveRange(in, 0, 24)
	require.NoError(t, err)
	require.Len(t, wallets, 25)

	seen := make(map[string]bool)
	for i, w := range wallets {
		require.Equal(t, uint32(i), w.Path.AddressIndex)
		require.False(t, seen[w.PublicKey])
		seen[w.PublicKey] = true

		single, err := e.Derive(Input{AssetID: "SOL", KeySets: in.KeySets, Path: PathInput{AddressIndex: uint32(i)}})
		require.NoError(t, err)
		require.Equal(t, single.PublicKey, w.PublicKey)
	}
	require.Equal(t, solPub, wallets[0].PublicKey)
	require.Equal(t, TypePermanent, wallets[0].Type)
	require.Equal(t, TypeDeposit, wallets[1].Type)
}

func TestDeriveRangeErrors(t *testing.T) {
	e := testEngine()
	in := Input{AssetID: "BTC", KeySets: []KeySet{{ID: 1, Xpub: testXpub}}}

	_, err := e.DeriveRange(in, 5, 4)
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = e.DeriveRange(in, 0, MaxRangeSize)
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = e.DeriveRange(in, 1<<31-2, 1<<31)
	require.ErrorIs(t, err, ErrInvalidPath)

	in.KeySets = nil
	_, err = e.DeriveRange(in, 0, 3)
	require.ErrorIs(t, err, ErrExtendedKeyRequired)
}
