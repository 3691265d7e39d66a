package cmd

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/strangelove-ventures/horcrux-recovery/config"
	"github.com/strangelove-ventures/horcrux-recovery/extkey"
	"github.com/strangelove-ventures/horcrux-recovery/recovery"
	"github.com/stretchr/testify/require"
)

// writeKit writes a recovery kit holding the test xprv and fprv as single
// share CMP keys, plus the recovery RSA key. It returns both paths.
func writeKit(t *testing.T, dir string) (kitPath, keyPath string) {
	t.Helper()
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keys := map[string]any{}
	files := map[string][]byte{}
	for _, k := range []struct {
		ext  string
		algo string
	}{
		{testXprv, "MPC_CMP_ECDSA_SECP256K1"},
		{testFprv, "MPC_CMP_EDDSA_ED25519"},
	} {
		decoded, err := extkey.Decode(k.ext)
		require.NoError(t, err)
		pub, err := decoded.PublicKey()
		require.NoError(t, err)

		keyID := uuid.NewString()
		keys[keyID] = map[string]any{
			"publicKey": hex.EncodeToString(pub),
			"algo":      k.algo,
			"chainCode": hex.EncodeToString(decoded.ChainCode),
		}
		share, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, &rsaKey.PublicKey, decoded.PrivateKey(), nil)
		require.NoError(t, err)
		files["1_"+keyID] = share
	}

	md, err := json.Marshal(map[string]any{"keys": keys})
	require.NoError(t, err)
	files["metadata.json"] = md

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	kitPath = filepath.Join(dir, "backup.zip")
	keyPath = filepath.Join(dir, "priv.pem")
	require.NoError(t, os.WriteFile(kitPath, buf.Bytes(), 0600))
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey)})
	require.NoError(t, os.WriteFile(keyPath, keyPEM, 0600))
	return kitPath, keyPath
}

func TestRecoverCmd(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, ".horcrux-recovery")
	kit, key := writeKit(t, dir)

	out, err := runCmd(t, home, "recover", "--archive", kit, "--rsa-key", key, "--private", "--save")
	require.NoError(t, err)

	var res recovery.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	primary := res.Primary()
	require.NotNil(t, primary)
	require.Equal(t, testXprv, primary.Xprv)
	require.Equal(t, testXpub, primary.Xpub)
	require.Equal(t, testFprv, primary.Fprv)
	require.Equal(t, testFpub, primary.Fpub)

	rc := config.NewRuntimeConfig(home)
	require.NoError(t, rc.ReadConfigFile())
	require.Len(t, rc.Config.KeySets, 1)
	require.Equal(t, testXprv, rc.Config.KeySets[0].Xprv)

	// the saved keysets drive derivation
	out, err = runCmd(t, home, "derive", "--asset", "BTC")
	require.NoError(t, err)
	var d deriveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	require.Equal(t, btcPub, d.PublicKey)
	require.Equal(t, btcWIF, d.WIF)
}

func TestRecoverCmdPublicOnlyWithMetrics(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, ".horcrux-recovery")
	kit, key := writeKit(t, dir)
	metrics := filepath.Join(dir, "metrics.prom")

	out, err := runCmd(t, home, "--metrics-textfile", metrics, "recover", "--archive", kit, "--rsa-key", key)
	require.NoError(t, err)

	var res recovery.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, testXpub, res.Primary().Xpub)
	require.Empty(t, res.Primary().Xprv)

	bz, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(bz), "recovery_total_keys_recovered")
}

func TestRecoverCmdErrors(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, ".horcrux-recovery")
	kit, key := writeKit(t, dir)

	_, err := runCmd(t, home, "recover", "--rsa-key", key)
	require.ErrorContains(t, err, "--archive is required")

	_, err = runCmd(t, home, "recover", "--archive", kit)
	require.ErrorContains(t, err, "--rsa-key is required")

	_, err = runCmd(t, home, "recover", "--archive", filepath.Join(dir, "missing.zip"), "--rsa-key", key)
	require.ErrorContains(t, err, "failed to read --archive")

	other := t.TempDir()
	_, otherKey := writeKit(t, other)
	_, err = runCmd(t, home, "recover", "--archive", kit, "--rsa-key", otherKey)
	require.ErrorIs(t, err, recovery.ErrInvalidRecoveryKit)
}
