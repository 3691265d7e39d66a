package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/horcrux-recovery/recovery"
	"gopkg.in/yaml.v2"
)

const (
	flagWalletMaster = "wallet-master"
	flagWalletID     = "wallet-id"
	flagAlgorithm    = "algorithm"
)

// walletMasterFile accepts the output of `recover --ncw` as JSON or YAML, or
// a bare wallet master document.
type walletMasterFile struct {
	Nested                *recovery.WalletMaster `yaml:"ncwWalletMaster"`
	recovery.WalletMaster `yaml:",inline"`
}

func readWalletMaster(bz []byte) (*recovery.WalletMaster, error) {
	var f walletMasterFile
	if err := yaml.Unmarshal(bz, &f); err != nil {
		return nil, fmt.Errorf("failed to parse --%s: %w", flagWalletMaster, err)
	}
	wm := &f.WalletMaster
	if f.Nested != nil {
		wm = f.Nested
	}
	if len(wm.MasterKeyForCosigner) == 0 {
		return nil, fmt.Errorf("--%s holds no cosigner master keys", flagWalletMaster)
	}
	return wm, nil
}

func ncwSharesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ncw-shares",
		Short: "Derive non-custodial wallet key shares from a recovered wallet master",
		Long: "Derive the cosigner key shares and asset chain code of non-custodial wallets.\n\n" +
			"--wallet-master is the output of `recover --ncw` or `recover --only-ncw`.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bz, err := readFileFlag(cmd, flagWalletMaster)
			if err != nil {
				return err
			}
			if bz == nil {
				return fmt.Errorf("--%s is required", flagWalletMaster)
			}
			walletIDs, _ := cmd.Flags().GetStringSlice(flagWalletID)
			if len(walletIDs) == 0 {
				return errors.New("at least one --wallet-id is required")
			}
			algoName, _ := cmd.Flags().GetString(flagAlgorithm)
			algo, err := recovery.ParseAlgorithm(algoName)
			if err != nil {
				return err
			}
			wm, err := readWalletMaster(bz)
			if err != nil {
				return err
			}

			// silence usage after all input has been validated
			cmd.SilenceUsage = true

			logger, err := newLogger(cmd, "recovery")
			if err != nil {
				return err
			}
			out := make([]*recovery.WalletShares, 0, len(walletIDs))
			for _, id := range walletIDs {
				shares, err := wm.DeriveWalletShares(id, algo)
				if err != nil {
					return err
				}
				logger.Info("Derived wallet shares", "wallet_id", id, "cosigners", len(shares.Shares))
				out = append(out, shares)
			}
			return printOutput(cmd.OutOrStdout(), out)
		},
	}

	f := cmd.Flags()
	f.String(flagWalletMaster, "", "Path to the recovered wallet master (JSON or YAML)")
	f.StringSlice(flagWalletID, nil, "Non-custodial wallet id, may be repeated")
	f.String(flagAlgorithm, "MPC_ECDSA_SECP256K1", "Wallet key algorithm")
	return cmd
}
