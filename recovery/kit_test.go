package recovery

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/strangelove-ventures/horcrux-recovery/internal/curve"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

const testMobilePassphrase = "Thefireblocks1!"

var (
	testKeysOnce     sync.Once
	testRSAKey       *rsa.PrivateKey
	testMobileRSAKey *rsa.PrivateKey
)

func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	testKeysOnce.Do(func() {
		var err error
		testRSAKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testMobileRSAKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return testRSAKey, testMobileRSAKey
}

func rsaPEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

// mobilePayload selects how the device share is wrapped before encryption.
type mobilePayload int

const (
	payloadRaw mobilePayload = iota
	payloadTagged
	payloadJSON
)

type kitKey struct {
	keyID     string
	algo      Algorithm
	priv      *big.Int
	keySetID  int
	chainCode []byte
	payload   mobilePayload

	// corruptCosigner flips a bit of the first cosigner share
	corruptCosigner bool
	// tagID overrides the algorithm tag of a tagged share
	tagID *int32
}

// kitBuilder assembles recovery kit zips for tests.
type kitBuilder struct {
	t *testing.T

	rsaKey       *rsa.PrivateKey
	mobileRSAKey *rsa.PrivateKey
	passphrase   string
	userID       string
	deviceID     string
	cosigners    []string

	keys          []*kitKey
	keysetMapping []rawKeySetMapping
	masterKeys    map[string]rawMasterKey
	extraFiles    map[string][]byte

	legacyMetadata bool
	bareCosigners  bool
	autoPassphrase bool
	skipMetadata   bool
}

func newKitBuilder(t *testing.T) *kitBuilder {
	rsaKey, mobileRSAKey := testKeys(t)
	return &kitBuilder{
		t:            t,
		rsaKey:       rsaKey,
		mobileRSAKey: mobileRSAKey,
		passphrase:   testMobilePassphrase,
		userID:       uuid.NewString(),
		deviceID:     uuid.NewString(),
		cosigners:    []string{"1", "2"},
		extraFiles:   make(map[string][]byte),
	}
}

func randomScalar(t *testing.T, n *big.Int) *big.Int {
	t.Helper()
	for {
		x, err := rand.Int(rand.Reader, n)
		require.NoError(t, err)
		if x.Sign() > 0 {
			return x
		}
	}
}

func randomChainCode(t *testing.T) []byte {
	t.Helper()
	cc := make([]byte, 32)
	_, err := rand.Read(cc)
	require.NoError(t, err)
	return cc
}

func (b *kitBuilder) addKey(algo Algorithm) *kitKey {
	k := &kitKey{
		keyID:     uuid.NewString(),
		algo:      algo,
		priv:      randomScalar(b.t, algo.Order()),
		keySetID:  DefaultKeySetID,
		chainCode: randomChainCode(b.t),
	}
	b.keys = append(b.keys, k)
	return k
}

// dealShares splits priv between the device and the cosigners.
func (b *kitBuilder) dealShares(k *kitKey) (mobile *big.Int, cosigner []*big.Int) {
	n := k.algo.Order()
	mobileID, err := DevicePlayerID(b.deviceID)
	require.NoError(b.t, err)

	ids := []uint64{mobileID}
	for _, c := range b.cosigners {
		id, err := CloudPlayerID(k.keyID, c)
		require.NoError(b.t, err)
		ids = append(ids, id)
	}

	shares := make([]*big.Int, len(ids))
	if k.algo.IsCMP() {
		sum := new(big.Int)
		for i := 1; i < len(ids); i++ {
			shares[i] = randomScalar(b.t, n)
			sum.Add(sum, shares[i])
		}
		shares[0] = new(big.Int).Sub(k.priv, sum)
		shares[0].Mod(shares[0], n)
	} else {
		// f(x) = priv + a*x, any two shares reconstruct
		a := randomScalar(b.t, n)
		for i, id := range ids {
			x := new(big.Int).SetUint64(id)
			shares[i] = new(big.Int).Mul(a, x)
			shares[i].Add(shares[i], k.priv).Mod(shares[i], n)
		}
	}
	return shares[0], shares[1:]
}

func (b *kitBuilder) publicKey(k *kitKey) []byte {
	pub, err := k.algo.PublicKey(k.priv)
	require.NoError(b.t, err)
	return pub
}

func encryptMobile(t *testing.T, passphrase, userID string, plain []byte) []byte {
	t.Helper()
	padLen := aes.BlockSize - len(plain)%aes.BlockSize
	padded := append(append([]byte(nil), plain...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)
	return encryptMobileBlocks(t, passphrase, userID, padded)
}

// encryptMobileBlocks encrypts block aligned plaintext without adding padding.
func encryptMobileBlocks(t *testing.T, passphrase, userID string, padded []byte) []byte {
	t.Helper()
	key := pbkdf2.Key([]byte(passphrase), []byte(userID), mobileKDFIterations, mobileKeyLen, sha1.New)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(ct, padded)
	return ct
}

func (b *kitBuilder) mobilePlaintext(k *kitKey, share *big.Int) []byte {
	raw := curve.PadScalar(share)
	switch k.payload {
	case payloadTagged:
		id := k.algo.tagID()
		if k.tagID != nil {
			id = *k.tagID
		}
		tag := make([]byte, shareTagLen)
		binary.LittleEndian.PutUint32(tag, uint32(id))
		return append(tag, raw...)
	case payloadJSON:
		bz, err := json.Marshal(map[string]string{"key": hex.EncodeToString(raw)})
		require.NoError(b.t, err)
		return bz
	}
	return raw
}

func (b *kitBuilder) metadataJSON() []byte {
	if b.legacyMetadata {
		require.Len(b.t, b.keys, 1)
		k := b.keys[0]
		bz, err := json.Marshal(map[string]string{
			"chainCode": hex.EncodeToString(k.chainCode),
			"keyId":     k.keyID,
			"publicKey": hex.EncodeToString(b.publicKey(k)),
		})
		require.NoError(b.t, err)
		return bz
	}

	keys := make(map[string]any)
	for _, k := range b.keys {
		keys[k.keyID] = map[string]any{
			"publicKey": hex.EncodeToString(b.publicKey(k)),
			"algo":      k.algo.String(),
			"chainCode": hex.EncodeToString(k.chainCode),
			"keysetId":  k.keySetID,
		}
	}
	md := map[string]any{
		"chainCode": hex.EncodeToString(randomChainCode(b.t)),
		"tenantId":  uuid.NewString(),
		"keys":      keys,
	}
	if b.keysetMapping != nil {
		md["keysetMapping"] = b.keysetMapping
	}
	if b.masterKeys != nil {
		md["masterKeys"] = b.masterKeys
	}
	bz, err := json.Marshal(md)
	require.NoError(b.t, err)
	return bz
}

// files returns the kit entries in zip order.
func (b *kitBuilder) files() ([]string, map[string][]byte) {
	var names []string
	files := make(map[string][]byte)
	add := func(name string, data []byte) {
		names = append(names, name)
		files[name] = data
	}

	if !b.skipMetadata {
		add(metadataFileName, b.metadataJSON())
	}

	passphrase := b.passphrase
	if b.autoPassphrase {
		secret := make([]byte, 16)
		_, err := rand.Read(secret)
		require.NoError(b.t, err)
		ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, &b.mobileRSAKey.PublicKey, secret, nil)
		require.NoError(b.t, err)
		bz, err := json.Marshal(map[string]string{"encryptedKey": hex.EncodeToString(ct)})
		require.NoError(b.t, err)
		add(passphraseFileName, bz)
		passphrase = hex.EncodeToString(secret)
	}

	for i, k := range b.keys {
		mobile, cosigner := b.dealShares(k)

		plain := b.mobilePlaintext(k, mobile)
		bz, err := json.Marshal(rawMobileShare{
			EncryptedKey:        hex.EncodeToString(encryptMobile(b.t, passphrase, b.userID, plain)),
			KeyID:               k.keyID,
			DeviceID:            b.deviceID,
			UserID:              b.userID,
			EncryptionAlgorithm: "PBKDF2-AES-256-CBC",
		})
		require.NoError(b.t, err)
		add(fmt.Sprintf("%s_%d", mobileFilePrefix, i), bz)

		for j, c := range b.cosigners {
			share := curve.PadScalar(cosigner[j])
			if k.corruptCosigner && j == 0 {
				share[31] ^= 0x01
			}
			ct, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, &b.rsaKey.PublicKey, share, nil)
			require.NoError(b.t, err)
			name := c + "_" + k.keyID
			if b.bareCosigners {
				name = c
			}
			add(name, ct)
		}
	}

	for name, data := range b.extraFiles {
		add(name, data)
	}
	return names, files
}

func (b *kitBuilder) build() []byte {
	names, files := b.files()
	return writeZip(b.t, names, files)
}

func writeZip(t *testing.T, names []string, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func (b *kitBuilder) options() Options {
	return Options{
		RSAPrivateKey:      rsaPEM(b.rsaKey),
		MobilePassphrase:   b.passphrase,
		RecoverPrivateKeys: true,
	}
}
