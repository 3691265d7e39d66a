// Package derivation derives per-asset child keys from master extended keys
// and signs with them. ECDSA keys follow standard BIP32, EdDSA keys follow
// the Fireblocks ed25519 scheme.
package derivation

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cometbft/cometbft/libs/log"
	"github.com/strangelove-ventures/horcrux-recovery/extkey"
	"github.com/strangelove-ventures/horcrux-recovery/internal/curve"
)

// Input is one derivation request.
type Input struct {
	AssetID string
	KeySets []KeySet
	Path    PathInput
	Testnet bool
	Legacy  bool
}

// Derivation is a derived child key. Hex values carry no 0x prefix.
type Derivation struct {
	AssetID    string   `json:"assetId" yaml:"assetId"`
	Algorithm  string   `json:"algorithm" yaml:"algorithm"`
	Path       HDPath   `json:"path" yaml:"path"`
	PathParts  []uint32 `json:"pathParts" yaml:"pathParts"`
	Type       string   `json:"type" yaml:"type"`
	KeySetID   int      `json:"keysetId" yaml:"keysetId"`
	PublicKey  string   `json:"publicKey" yaml:"publicKey"`
	PrivateKey string   `json:"privateKey,omitempty" yaml:"privateKey,omitempty"`
	WIF        string   `json:"wif,omitempty" yaml:"wif,omitempty"`
	Testnet    bool     `json:"isTestnet" yaml:"isTestnet"`
	Legacy     bool     `json:"isLegacy" yaml:"isLegacy"`
}

// Wallet is a derivation bound to the strategy that produced it.
type Wallet struct {
	Derivation `yaml:",inline"`

	asset      Asset
	strategy   Strategy
	privateKey []byte
}

// Asset returns the asset the wallet was derived for.
func (w *Wallet) Asset() Asset {
	return w.asset
}

// HasPrivateKey reports whether the wallet was derived from a private key.
func (w *Wallet) HasPrivateKey() bool {
	return len(w.privateKey) > 0
}

// Sign signs msg with the derived private key. ECDSA wallets expect a 32 byte
// digest, EdDSA wallets sign the message bytes as given.
func (w *Wallet) Sign(msg []byte) ([]byte, error) {
	return w.strategy.Sign(w.privateKey, msg)
}

// PublicKeyBytes returns the derived public key.
func (w *Wallet) PublicKeyBytes() []byte {
	b, _ := hex.DecodeString(w.PublicKey)
	return b
}

// Wipe zeroes the private key held by the wallet.
func (w *Wallet) Wipe() {
	curve.Zero(w.privateKey)
	w.privateKey = nil
}

// Engine derives wallets. It holds no state besides its logger and is safe
// for concurrent use.
type Engine struct {
	logger log.Logger
	// Strategies overrides the default strategy of a family.
	Strategies map[extkey.Family]Strategy
}

func NewEngine(logger log.Logger) *Engine {
	return &Engine{logger: logger}
}

func (e *Engine) strategy(f extkey.Family) Strategy {
	if s, ok := e.Strategies[f]; ok {
		return s
	}
	return StrategyFor(f)
}

// ResolvePath fills in path defaults for an asset.
func ResolvePath(asset Asset, in PathInput, testnet bool) HDPath {
	coinType := asset.DefaultCoinType(testnet)
	if in.CoinType != nil {
		coinType = *in.CoinType
	}
	return HDPath{
		CoinType:     coinType,
		Account:      in.Account,
		ChangeIndex:  in.ChangeIndex,
		AddressIndex: in.AddressIndex,
	}
}

// Derive derives the child key of in.AssetID at in.Path from the most recent
// keyset that covers the requested account.
func (e *Engine) Derive(in Input) (*Wallet, error) {
	asset, err := LookupAsset(in.AssetID)
	if err != nil {
		return nil, err
	}
	testnet := in.Testnet || asset.Testnet
	path := ResolvePath(asset, in.Path, testnet)
	if err := path.Validate(); err != nil {
		return nil, err
	}

	ks, err := SelectKeySet(in.KeySets, asset.Family, path.Account)
	if err != nil {
		return nil, err
	}
	key, err := ks.ExtendedKey(asset.Family)
	if err != nil {
		return nil, err
	}

	strategy := e.strategy(asset.Family)
	km, err := strategy.Derive(key, path.Parts())
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", asset.ID, path, err)
	}

	w := &Wallet{
		Derivation: Derivation{
			AssetID:   asset.ID,
			Algorithm: strings.ToUpper(asset.Family.String()),
			Path:      path,
			PathParts: path.Parts(),
			Type:      path.Type(),
			KeySetID:  ks.ID,
			PublicKey: hex.EncodeToString(km.PublicKey),
			WIF:       km.WIF,
			Testnet:   testnet,
			Legacy:    in.Legacy,
		},
		asset:      asset,
		strategy:   strategy,
		privateKey: km.PrivateKey,
	}
	if km.PrivateKey != nil {
		w.PrivateKey = hex.EncodeToString(km.PrivateKey)
	}

	totalDerivations.WithLabelValues(asset.Family.String()).Inc()
	e.logger.Debug(
		"Derived wallet",
		"asset", asset.ID,
		"path", path.String(),
		"keyset", ks.ID,
		"public_key", w.PublicKey,
	)
	return w, nil
}
