package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/horcrux-recovery/config"
)

const (
	flagKeySetID        = "keyset-id"
	flagMinAccountECDSA = "min-account-ecdsa"
	flagMinAccountEdDSA = "min-account-eddsa"
	flagOverwrite       = "overwrite"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Commands to configure horcrux-recovery",
	}
	cmd.AddCommand(initCmd())
	return cmd
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "initialize configuration file and home directory if one doesn't already exist",
		Long: "initialize configuration file with one keyset built from the extended key flags.\n\n" +
			"Keysets recovered from a kit can be stored with `recover --save` instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			f := cmd.Flags()
			overwrite, _ := f.GetBool(flagOverwrite)
			if runtimeConfig.ConfigExists() && !overwrite {
				return fmt.Errorf("%s already exists. Provide the --overwrite flag to overwrite the existing config",
					runtimeConfig.ConfigFile)
			}

			id, _ := f.GetInt(flagKeySetID)
			minECDSA, _ := f.GetUint32(flagMinAccountECDSA)
			minEdDSA, _ := f.GetUint32(flagMinAccountEdDSA)
			testnet, _ := f.GetBool(flagTestnet)
			xpub, _ := f.GetString(flagXpub)
			fpub, _ := f.GetString(flagFpub)
			xprv, _ := f.GetString(flagXprv)
			fprv, _ := f.GetString(flagFprv)

			cfg := config.Config{
				LogLevel: runtimeConfig.Config.LogLevel,
				Output:   runtimeConfig.Config.Output,
				Testnet:  testnet,
			}
			if xpub != "" || fpub != "" || xprv != "" || fprv != "" {
				cfg.KeySets = config.KeySetsConfig{{
					ID:              id,
					MinAccountECDSA: minECDSA,
					MinAccountEdDSA: minEdDSA,
					Xpub:            xpub,
					Fpub:            fpub,
					Xprv:            xprv,
					Fprv:            fprv,
				}}
			}
			if err = cfg.Validate(); err != nil {
				return err
			}

			// silence usage after all input has been validated
			cmd.SilenceUsage = true

			runtimeConfig.Config = cfg
			if err = runtimeConfig.WriteConfigFile(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", runtimeConfig.ConfigFile)
			return nil
		},
	}

	f := cmd.Flags()
	f.Int(flagKeySetID, 1, "Id of the keyset")
	f.Uint32(flagMinAccountECDSA, 0, "First vault account the ECDSA keys of this keyset derive")
	f.Uint32(flagMinAccountEdDSA, 0, "First vault account the EdDSA keys of this keyset derive")
	f.Bool(flagTestnet, false, "Derive testnet keys by default")
	f.String(flagXpub, "", "ECDSA extended public key")
	f.String(flagFpub, "", "EdDSA extended public key")
	f.String(flagXprv, "", "ECDSA extended private key")
	f.String(flagFprv, "", "EdDSA extended private key")
	f.Bool(flagOverwrite, false, "overwrite an existing config")
	return cmd
}
