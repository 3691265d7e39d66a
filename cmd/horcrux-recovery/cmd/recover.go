package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/horcrux-recovery/config"
	"github.com/strangelove-ventures/horcrux-recovery/recovery"
)

const (
	flagArchive             = "archive"
	flagRSAKey              = "rsa-key"
	flagRSAPassphrase       = "rsa-passphrase"
	flagMobilePassphrase    = "mobile-passphrase"
	flagMobileRSAKey        = "mobile-rsa-key"
	flagMobileRSAPassphrase = "mobile-rsa-passphrase"
	flagPrivate             = "private"
	flagNCW                 = "ncw"
	flagOnlyNCW             = "only-ncw"
	flagSave                = "save"
)

func recoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Reconstruct the workspace master keys from a recovery kit",
		Long: "Reconstruct the workspace master keys from a recovery kit zip.\n\n" +
			"Passphrases may also be given through the environment, e.g.\n" +
			"HORCRUX_RECOVERY_RSA_PASSPHRASE and HORCRUX_RECOVERY_MOBILE_PASSPHRASE.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := readFileFlag(cmd, flagArchive)
			if err != nil {
				return err
			}
			if archive == nil {
				return errors.New("--archive is required")
			}
			rsaKey, err := readFileFlag(cmd, flagRSAKey)
			if err != nil {
				return err
			}
			if rsaKey == nil {
				return errors.New("--rsa-key is required")
			}
			mobileRSAKey, err := readFileFlag(cmd, flagMobileRSAKey)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			private, _ := flags.GetBool(flagPrivate)
			ncw, _ := flags.GetBool(flagNCW)
			onlyNCW, _ := flags.GetBool(flagOnlyNCW)
			save, _ := flags.GetBool(flagSave)

			opts := recovery.Options{
				RSAPrivateKey:       rsaKey,
				RSAPassphrase:       secretSetting(flagRSAPassphrase),
				MobilePassphrase:    secretSetting(flagMobilePassphrase),
				MobileRSAPrivateKey: mobileRSAKey,
				MobileRSAPassphrase: secretSetting(flagMobileRSAPassphrase),
				RecoverPrivateKeys:  private,
				RecoverNCW:          ncw,
				OnlyNCW:             onlyNCW,
			}

			// silence usage after all input has been validated
			cmd.SilenceUsage = true

			logger, err := newLogger(cmd, "recovery")
			if err != nil {
				return err
			}
			res, err := recovery.NewRecoverer(logger).Recover(archive, opts)
			if err != nil {
				return err
			}

			if save {
				if err := saveKeySets(res, private); err != nil {
					return err
				}
				logger.Info("Saved keysets", "config", runtimeConfig.ConfigFile, "private", private)
			}
			return printOutput(cmd.OutOrStdout(), res)
		},
	}

	f := cmd.Flags()
	f.String(flagArchive, "", "Path to the recovery kit zip")
	f.String(flagRSAKey, "", "Path to the recovery RSA private key (PEM)")
	f.String(flagRSAPassphrase, "", "Passphrase of the recovery RSA private key")
	f.String(flagMobilePassphrase, "", "Owner mobile backup passphrase")
	f.String(flagMobileRSAKey, "", "Path to the mobile RSA private key, used when the mobile passphrase was auto generated")
	f.String(flagMobileRSAPassphrase, "", "Passphrase of the mobile RSA private key (defaults to --rsa-passphrase)")
	f.Bool(flagPrivate, false, "Include xprv/fprv in the output")
	f.Bool(flagNCW, false, "Also recover the non-custodial wallet master key")
	f.Bool(flagOnlyNCW, false, "Only recover the non-custodial wallet master key")
	f.Bool(flagSave, false, "Store the recovered keysets in the config file")
	return cmd
}

func saveKeySets(res *recovery.Result, private bool) error {
	keySets := config.KeySetsFromRecovery(res, private)
	if len(keySets) == 0 {
		return errors.New("no keysets recovered, nothing to save")
	}
	runtimeConfig.Config.KeySets = keySets
	if err := runtimeConfig.Config.Validate(); err != nil {
		return err
	}
	if err := runtimeConfig.WriteConfigFile(); err != nil {
		return fmt.Errorf("failed to write %s: %w", runtimeConfig.ConfigFile, err)
	}
	return nil
}
