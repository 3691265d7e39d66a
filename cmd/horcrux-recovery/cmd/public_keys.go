package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/horcrux-recovery/extkey"
)

type publicKeys struct {
	Xpub string `json:"xpub,omitempty" yaml:"xpub,omitempty"`
	Fpub string `json:"fpub,omitempty" yaml:"fpub,omitempty"`
}

func publicKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "public-keys",
		Short: "Compute the xpub/fpub of private extended keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			xprv, _ := cmd.Flags().GetString(flagXprv)
			fprv, _ := cmd.Flags().GetString(flagFprv)
			if xprv == "" && fprv == "" {
				return errors.New("at least one of --xprv or --fprv is required")
			}

			var out publicKeys
			if xprv != "" {
				if out.Xpub, err = publicFromPrivate(xprv, extkey.FamilyECDSA); err != nil {
					return err
				}
			}
			if fprv != "" {
				if out.Fpub, err = publicFromPrivate(fprv, extkey.FamilyEdDSA); err != nil {
					return err
				}
			}
			return printOutput(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().String(flagXprv, "", "ECDSA extended private key")
	cmd.Flags().String(flagFprv, "", "EdDSA extended private key")
	return cmd
}

func publicFromPrivate(s string, family extkey.Family) (string, error) {
	k, err := extkey.Decode(s)
	if err != nil {
		return "", err
	}
	if k.Family() != family || !k.IsPrivate() {
		return "", extkey.ErrInvalidExtendedKey
	}
	return extkey.PublicFromPrivate(s)
}
