package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/horcrux-recovery/derivation"
)

type assetInfo struct {
	ID        string `json:"id" yaml:"id"`
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	CoinType  uint32 `json:"coinType" yaml:"coinType"`
	Testnet   bool   `json:"testnet" yaml:"testnet"`
}

func assetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "List the assets keys can be derived for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := derivation.Assets()
			out := make([]assetInfo, 0, len(all))
			for _, a := range all {
				out = append(out, assetInfo{
					ID:        a.ID,
					Algorithm: strings.ToUpper(a.Family.String()),
					CoinType:  a.DefaultCoinType(false),
					Testnet:   a.Testnet,
				})
			}
			return printOutput(cmd.OutOrStdout(), out)
		},
	}
}
