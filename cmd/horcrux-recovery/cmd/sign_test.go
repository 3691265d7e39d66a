package cmd

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/strangelove-ventures/horcrux-recovery/signer"
	"github.com/stretchr/testify/require"
)

func TestSignCmd(t *testing.T) {
	home := filepath.Join(t.TempDir(), ".horcrux-recovery")
	msg := []byte("offline withdrawal")
	msgHex := hex.EncodeToString(msg)

	t.Run("eth keccak256", func(t *testing.T) {
		out, err := runCmd(t, home, "sign", "--asset", "ETH", "--xprv", testXprv, "--message", msgHex, "--hash", "keccak256")
		require.NoError(t, err)

		var res SignResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		require.Equal(t, ethPub, res.PublicKey)
		require.Equal(t, hex.EncodeToString(crypto.Keccak256(msg)), res.Signed)

		sig, err := hex.DecodeString(res.Signature)
		require.NoError(t, err)
		require.Len(t, sig, signer.ECDSASignatureSize)
		pub, err := hex.DecodeString(ethPub)
		require.NoError(t, err)
		require.True(t, signer.VerifyECDSA(pub, crypto.Keccak256(msg), sig))
	})

	t.Run("sol raw message", func(t *testing.T) {
		out, err := runCmd(t, home, "sign", "--asset", "SOL", "--fprv", testFprv, "--message", msgHex)
		require.NoError(t, err)

		var res SignResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		require.Equal(t, solPub, res.PublicKey)
		require.Equal(t, "EDDSA", res.Algorithm)

		sig, err := hex.DecodeString(res.Signature)
		require.NoError(t, err)
		pub, err := hex.DecodeString(solPub)
		require.NoError(t, err)
		require.True(t, ed25519.Verify(pub, msg, sig))
	})

	t.Run("btc sha256 at index", func(t *testing.T) {
		out, err := runCmd(t, home, "sign", "--asset", "BTC", "--xprv", testXprv, "--index", "2", "--message", "0x"+msgHex, "--hash", "sha256")
		require.NoError(t, err)

		var res SignResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		require.Equal(t, uint32(2), res.Path.AddressIndex)
		require.NotEqual(t, btcPub, res.PublicKey)
	})
}

func TestSignCmdErrors(t *testing.T) {
	home := filepath.Join(t.TempDir(), ".horcrux-recovery")
	tcs := []struct {
		name string
		args []string
		msg  string
	}{
		{"public key only", []string{"--asset", "ETH", "--xpub", testXpub, "--message", "00", "--hash", "sha256"}, "requires a private extended key"},
		{"ecdsa without digest", []string{"--asset", "ETH", "--xprv", testXprv, "--message", "0011"}, "32 byte digest"},
		{"bad hex", []string{"--asset", "ETH", "--xprv", testXprv, "--message", "zz"}, "--message must be hex"},
		{"bad hash", []string{"--asset", "ETH", "--xprv", testXprv, "--message", "00", "--hash", "md5"}, `unknown --hash "md5"`},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCmd(t, home, append([]string{"sign"}, tc.args...)...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.msg)
		})
	}
}
