package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/horcrux-recovery/config"
	"github.com/strangelove-ventures/horcrux-recovery/derivation"
)

const (
	flagAsset      = "asset"
	flagAccount    = "account"
	flagChange     = "change"
	flagIndex      = "index"
	flagIndexStart = "index-start"
	flagIndexEnd   = "index-end"
	flagCoinType   = "coin-type"
	flagTestnet    = "testnet"
	flagLegacy     = "legacy"
	flagXpub       = "xpub"
	flagFpub       = "fpub"
	flagXprv       = "xprv"
	flagFprv       = "fprv"
)

// addDerivationFlags registers the asset, path and extended key flags shared
// by derive and sign.
func addDerivationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(flagAsset, "", "Asset id, e.g. BTC, ETH or SOL")
	f.Uint32(flagAccount, 0, "Vault account number")
	f.Uint32(flagChange, 0, "Change index")
	f.Uint32(flagCoinType, 0, "Override the asset's coin type")
	f.Bool(flagTestnet, false, "Derive testnet keys (coin type 1)")
	f.Bool(flagLegacy, false, "Mark the derivation as legacy rather than segwit")
	f.String(flagXpub, "", "ECDSA extended public key, overrides the config keysets")
	f.String(flagFpub, "", "EdDSA extended public key, overrides the config keysets")
	f.String(flagXprv, "", "ECDSA extended private key, overrides the config keysets")
	f.String(flagFprv, "", "EdDSA extended private key, overrides the config keysets")
}

// derivationInput builds a request from flags for a single address index.
func derivationInput(cmd *cobra.Command, addressIndex uint32) (derivation.Input, error) {
	f := cmd.Flags()
	asset, _ := f.GetString(flagAsset)
	if asset == "" {
		return derivation.Input{}, errors.New("--asset is required")
	}
	account, _ := f.GetUint32(flagAccount)
	change, _ := f.GetUint32(flagChange)
	testnet, _ := f.GetBool(flagTestnet)
	legacy, _ := f.GetBool(flagLegacy)

	keySets, err := keySetsFromFlags(cmd)
	if err != nil {
		return derivation.Input{}, err
	}

	in := derivation.Input{
		AssetID: asset,
		KeySets: keySets,
		Path: derivation.PathInput{
			Account:      account,
			ChangeIndex:  change,
			AddressIndex: addressIndex,
		},
		Testnet: testnet || runtimeConfig.Config.Testnet,
		Legacy:  legacy,
	}
	if f.Changed(flagCoinType) {
		coinType, _ := f.GetUint32(flagCoinType)
		in.Path.CoinType = &coinType
	}
	return in, nil
}

// keySetsFromFlags uses extended keys given on the command line as keyset 1,
// otherwise the keysets of the config file.
func keySetsFromFlags(cmd *cobra.Command) ([]derivation.KeySet, error) {
	f := cmd.Flags()
	xpub, _ := f.GetString(flagXpub)
	fpub, _ := f.GetString(flagFpub)
	xprv, _ := f.GetString(flagXprv)
	fprv, _ := f.GetString(flagFprv)

	keySets := runtimeConfig.Config.KeySets
	if xpub != "" || fpub != "" || xprv != "" || fprv != "" {
		keySets = config.KeySetsConfig{{ID: 1, Xpub: xpub, Fpub: fpub, Xprv: xprv, Fprv: fprv}}
	}
	if err := keySets.Validate(); err != nil {
		return nil, err
	}
	return keySets.DerivationKeySets(), nil
}

func deriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive asset keys from the master extended keys",
		Long: "Derive asset keys along m/44/coinType/account/change/index.\n\n" +
			"Keys come from --xpub/--fpub/--xprv/--fprv or from the keysets in the config file.\n" +
			"With private extended keys the output includes the private key and, for ECDSA, its WIF.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			start, _ := f.GetUint32(flagIndexStart)
			end := start
			if f.Changed(flagIndexEnd) {
				end, _ = f.GetUint32(flagIndexEnd)
			}

			in, err := derivationInput(cmd, start)
			if err != nil {
				return err
			}

			// silence usage after all input has been validated
			cmd.SilenceUsage = true

			logger, err := newLogger(cmd, "derivation")
			if err != nil {
				return err
			}
			engine := derivation.NewEngine(logger)

			if start == end {
				w, err := engine.Derive(in)
				if err != nil {
					return err
				}
				defer w.Wipe()
				return printOutput(cmd.OutOrStdout(), w)
			}

			wallets, err := engine.DeriveRange(in, start, end)
			if err != nil {
				return err
			}
			defer func() {
				for _, w := range wallets {
					w.Wipe()
				}
			}()
			return printOutput(cmd.OutOrStdout(), wallets)
		},
	}

	addDerivationFlags(cmd)
	cmd.Flags().Uint32(flagIndexStart, 0, "First address index")
	cmd.Flags().Uint32(flagIndexEnd, 0, "Last address index, inclusive (defaults to --index-start)")
	return cmd
}
