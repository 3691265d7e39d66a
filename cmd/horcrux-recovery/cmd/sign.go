package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/horcrux-recovery/derivation"
)

const (
	flagMessage = "message"
	flagHash    = "hash"

	hashNone      = "none"
	hashSHA256    = "sha256"
	hashKeccak256 = "keccak256"
)

// SignResult is the output of the sign command.
type SignResult struct {
	AssetID   string            `json:"assetId" yaml:"assetId"`
	Algorithm string            `json:"algorithm" yaml:"algorithm"`
	Path      derivation.HDPath `json:"path" yaml:"path"`
	PublicKey string            `json:"publicKey" yaml:"publicKey"`
	Hash      string            `json:"hash" yaml:"hash"`
	Signed    string            `json:"signed" yaml:"signed"`
	Signature string            `json:"signature" yaml:"signature"`
}

func hashMessage(name string, msg []byte) ([]byte, error) {
	switch strings.ToLower(name) {
	case hashNone:
		return msg, nil
	case hashSHA256:
		sum := sha256.Sum256(msg)
		return sum[:], nil
	case hashKeccak256:
		return crypto.Keccak256(msg), nil
	}
	return nil, fmt.Errorf("unknown --hash %q, must be %s, %s or %s", name, hashNone, hashSHA256, hashKeccak256)
}

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a message with a derived asset key",
		Long: "Sign a hex encoded message with the key derived for --asset.\n\n" +
			"ECDSA assets sign a 32 byte digest and return r ‖ s ‖ v. Use --hash to digest\n" +
			"the message first. EdDSA assets sign the message bytes and return R ‖ S.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			msgHex, _ := f.GetString(flagMessage)
			msg, err := hex.DecodeString(strings.TrimPrefix(msgHex, "0x"))
			if err != nil {
				return fmt.Errorf("--message must be hex: %w", err)
			}
			hashName, _ := f.GetString(flagHash)
			toSign, err := hashMessage(hashName, msg)
			if err != nil {
				return err
			}
			index, _ := f.GetUint32(flagIndex)
			in, err := derivationInput(cmd, index)
			if err != nil {
				return err
			}

			// silence usage after all input has been validated
			cmd.SilenceUsage = true

			logger, err := newLogger(cmd, "signer")
			if err != nil {
				return err
			}
			w, err := derivation.NewEngine(logger).Derive(in)
			if err != nil {
				return err
			}
			defer w.Wipe()
			if !w.HasPrivateKey() {
				return errors.New("signing requires a private extended key (xprv or fprv)")
			}

			sig, err := w.Sign(toSign)
			if err != nil {
				return err
			}
			logger.Info("Signed message", "asset", w.AssetID, "path", w.Path.String(), "hash", hashName)

			return printOutput(cmd.OutOrStdout(), SignResult{
				AssetID:   w.AssetID,
				Algorithm: w.Algorithm,
				Path:      w.Path,
				PublicKey: w.PublicKey,
				Hash:      strings.ToLower(hashName),
				Signed:    hex.EncodeToString(toSign),
				Signature: hex.EncodeToString(sig),
			})
		},
	}

	addDerivationFlags(cmd)
	cmd.Flags().Uint32(flagIndex, 0, "Address index")
	cmd.Flags().String(flagMessage, "", "Hex encoded message or digest")
	cmd.Flags().String(flagHash, hashNone, "Digest the message before signing: none, sha256 or keccak256")
	return cmd
}
