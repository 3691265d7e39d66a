package recovery

import (
	"encoding/hex"
	"testing"

	"github.com/strangelove-ventures/horcrux-recovery/extkey"
	"github.com/stretchr/testify/require"
)

const testChainCode = "5d90bd21d2273a25d0aea082716bdc4529e007823260ad3479182f6672c25cc4"

func TestParseMetadata(t *testing.T) {
	md, err := ParseMetadata([]byte(`{
		"chainCode": "` + testChainCode + `",
		"keys": {
			"a": {"publicKey": "02aa", "algo": "MPC_CMP_ECDSA_SECP256K1"},
			"b": {"publicKey": "bb", "algorithm": "MPC_EDDSA_ED25519", "keysetId": 2,
			      "chainCode": "0000000000000000000000000000000000000000000000000000000000000000"}
		},
		"keysetMapping": [
			{"keysetId": 1, "algo": "MPC_ECDSA_SECP256K1", "minAccount": 0},
			{"keysetId": 2, "algo": "MPC_EDDSA_ED25519", "minAccount": 10}
		]
	}`))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, md.KeyIDs())

	a := md.Keys["a"]
	require.Equal(t, AlgorithmCMPECDSASecp256k1, a.Algorithm)
	require.Equal(t, DefaultKeySetID, a.KeySetID)
	require.Equal(t, testChainCode, hex.EncodeToString(a.ChainCode))
	require.Equal(t, []byte{0x02, 0xaa}, a.PublicKey)

	b := md.Keys["b"]
	require.Equal(t, AlgorithmEdDSAEd25519, b.Algorithm)
	require.Equal(t, 2, b.KeySetID)
	require.Equal(t, make([]byte, 32), b.ChainCode)

	require.Equal(t, 10, md.MinAccount(extkey.FamilyEdDSA, 2))
	require.Equal(t, 0, md.MinAccount(extkey.FamilyECDSA, 2))
}

func TestParseLegacyMetadata(t *testing.T) {
	md, err := ParseMetadata([]byte(`{"chainCode":"` + testChainCode + `","keyId":"k1","publicKey":"02ab"}`))
	require.NoError(t, err)
	require.Len(t, md.Keys, 1)
	require.Equal(t, AlgorithmECDSASecp256k1, md.Keys["k1"].Algorithm)
	require.Equal(t, 0, md.MinAccount(extkey.FamilyECDSA, DefaultKeySetID))

	id, ok := md.onlyKeyID()
	require.True(t, ok)
	require.Equal(t, "k1", id)
}

func TestParseMetadataErrors(t *testing.T) {
	tcs := []struct {
		name   string
		json   string
		expect error
	}{
		{"not json", `{`, ErrInvalidRecoveryKit},
		{"no keys", `{"chainCode":"` + testChainCode + `"}`, ErrInvalidRecoveryKit},
		{"bad chain code", `{"chainCode":"00ff","keyId":"k","publicKey":"02"}`, ErrUnknownChainCode},
		{"missing chain code", `{"keys":{"k":{"publicKey":"02","algo":"MPC_ECDSA_SECP256K1"}}}`, ErrUnknownChainCode},
		{"unknown algorithm", `{"chainCode":"` + testChainCode + `","keys":{"k":{"publicKey":"02","algo":"RSA"}}}`, ErrUnknownAlgorithm},
		{"bad public key", `{"chainCode":"` + testChainCode + `","keyId":"k","publicKey":"xyz"}`, ErrInvalidRecoveryKit},
		{"bad keyset algorithm", `{"chainCode":"` + testChainCode + `","keyId":"k","publicKey":"02",
			"keysetMapping":[{"keysetId":1,"algo":"X","minAccount":0}]}`, ErrUnknownAlgorithm},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMetadata([]byte(tc.json))
			require.ErrorIs(t, err, tc.expect)
		})
	}
}

func TestAlgorithm(t *testing.T) {
	for _, algo := range []Algorithm{
		AlgorithmECDSASecp256k1, AlgorithmEdDSAEd25519, AlgorithmCMPECDSASecp256k1, AlgorithmCMPEdDSAEd25519,
	} {
		parsed, err := ParseAlgorithm(algo.String())
		require.NoError(t, err)
		require.Equal(t, algo, parsed)

		bz, err := algo.MarshalJSON()
		require.NoError(t, err)
		var decoded Algorithm
		require.NoError(t, decoded.UnmarshalJSON(bz))
		require.Equal(t, algo, decoded)
	}

	require.True(t, AlgorithmCMPEdDSAEd25519.IsCMP())
	require.False(t, AlgorithmEdDSAEd25519.IsCMP())
	require.Equal(t, extkey.FamilyEdDSA, AlgorithmCMPEdDSAEd25519.Family())
	require.Equal(t, extkey.FamilyECDSA, AlgorithmCMPECDSASecp256k1.Family())

	_, err := ParseAlgorithm("MPC_BLS")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}
