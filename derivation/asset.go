package derivation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/strangelove-ventures/horcrux-recovery/extkey"
)

// testnetCoinType is the SLIP-44 coin type shared by all test networks.
const testnetCoinType uint32 = 1

// Asset describes how keys for one asset are derived.
type Asset struct {
	ID       string
	Family   extkey.Family
	CoinType uint32
	Testnet  bool
}

type chain struct {
	family   extkey.Family
	coinType uint32
	ids      []string
	testIDs  []string
}

var chains = []chain{
	{extkey.FamilyECDSA, 0, []string{"BTC"}, []string{"BTC_TEST"}},
	{extkey.FamilyECDSA, 2, []string{"LTC"}, []string{"LTC_TEST"}},
	{extkey.FamilyECDSA, 3, []string{"DOGE"}, []string{"DOGE_TEST"}},
	{extkey.FamilyECDSA, 5, []string{"DASH"}, []string{"DASH_TEST"}},
	{extkey.FamilyECDSA, 60, []string{"ETH", "BNB_BSC", "MATIC_POLYGON", "AVAX", "FTM_FANTOM", "ETH-AETH", "ETH-OPT"},
		[]string{"ETH_TEST", "ETH_TEST2", "ETH_TEST3", "ETH_TEST5", "BNB_TEST", "AVAXTEST"}},
	{extkey.FamilyECDSA, 61, []string{"ETC"}, []string{"ETC_TEST"}},
	{extkey.FamilyECDSA, 118, []string{"ATOM", "ATOM_COS"}, []string{"ATOM_TEST", "ATOM_COS_TEST"}},
	{extkey.FamilyECDSA, 133, []string{"ZEC"}, []string{"ZEC_TEST"}},
	{extkey.FamilyECDSA, 144, []string{"XRP"}, []string{"XRP_TEST"}},
	{extkey.FamilyECDSA, 145, []string{"BCH"}, []string{"BCH_TEST"}},
	{extkey.FamilyECDSA, 194, []string{"EOS"}, []string{"EOS_TEST"}},
	{extkey.FamilyECDSA, 195, []string{"TRX"}, []string{"TRX_TEST"}},
	{extkey.FamilyECDSA, 330, []string{"LUNA", "LUNA2"}, []string{"LUNA_TEST", "LUNA2_TEST"}},

	{extkey.FamilyEdDSA, 43, []string{"NEM", "XEM"}, []string{"NEM_TEST", "XEM_TEST"}},
	{extkey.FamilyEdDSA, 146, []string{"XLM"}, []string{"XLM_TEST"}},
	{extkey.FamilyEdDSA, 283, []string{"ALGO"}, []string{"ALGO_TEST", "ALGO_TESTNET"}},
	{extkey.FamilyEdDSA, 354, []string{"DOT"}, []string{"DOT_TEST", "WND"}},
	{extkey.FamilyEdDSA, 397, []string{"NEAR"}, []string{"NEAR_TEST"}},
	{extkey.FamilyEdDSA, 434, []string{"KSM"}, []string{"KSM_TEST"}},
	{extkey.FamilyEdDSA, 501, []string{"SOL"}, []string{"SOL_TEST"}},
	{extkey.FamilyEdDSA, 607, []string{"TON"}, []string{"TON_TEST"}},
	{extkey.FamilyEdDSA, 1729, []string{"XTZ"}, []string{"XTZ_TEST"}},
	{extkey.FamilyEdDSA, 1815, []string{"ADA"}, []string{"ADA_TEST"}},
	{extkey.FamilyEdDSA, 3030, []string{"HBAR"}, []string{"HBAR_TEST"}},
}

var assets = buildAssets()

func buildAssets() map[string]Asset {
	m := make(map[string]Asset)
	for _, c := range chains {
		for _, id := range c.ids {
			m[id] = Asset{ID: id, Family: c.family, CoinType: c.coinType}
		}
		for _, id := range c.testIDs {
			m[id] = Asset{ID: id, Family: c.family, CoinType: testnetCoinType, Testnet: true}
		}
	}
	return m
}

// LookupAsset returns the derivation parameters of an asset id.
// Lookup is case insensitive.
func LookupAsset(id string) (Asset, error) {
	a, ok := assets[strings.ToUpper(id)]
	if !ok {
		return Asset{}, fmt.Errorf("%w %q", ErrUnsupportedAsset, id)
	}
	return a, nil
}

// Assets lists all supported assets sorted by id.
func Assets() []Asset {
	out := make([]Asset, 0, len(assets))
	for _, a := range assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultCoinType is the coin type used when the caller gives none.
func (a Asset) DefaultCoinType(testnet bool) uint32 {
	if testnet || a.Testnet {
		return testnetCoinType
	}
	return a.CoinType
}
