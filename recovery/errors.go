package recovery

import "errors"

var (
	ErrNoMetadata           = errors.New("no metadata.json found in recovery kit")
	ErrNoRSAPassphrase      = errors.New("no RSA_PASSPHRASE found in recovery kit")
	ErrUnknownChainCode     = errors.New("chain code in metadata must be 32 bytes")
	ErrKeyIDNotInMetadata   = errors.New("key id not found in metadata")
	ErrKeyIDMissing         = errors.New("no key shares found for key id")
	ErrDecryptMobileKey     = errors.New("failed to decrypt mobile key share")
	ErrDecryptRSAPrivateKey = errors.New("failed to decrypt RSA private key")
	ErrInvalidRSAPrivateKey = errors.New("invalid RSA private key")
	ErrInvalidRecoveryKit   = errors.New("invalid recovery kit")
	ErrUnknownAlgorithm     = errors.New("unknown algorithm")

	ErrMissingMobilePassphrase = errors.New("mobile passphrase or mobile RSA key is required")

	ErrMissingWalletMasterKeyID   = errors.New("no wallet master key found in metadata")
	ErrAmbiguousWalletMasterKeyID = errors.New("more than one wallet master key found in metadata")
	ErrMissingMasterKeyFile       = errors.New("wallet master key share file not found in recovery kit")
	ErrDuplicateMasterKeyFile     = errors.New("duplicate wallet master key share file in recovery kit")
	ErrInvalidMasterKey           = errors.New("invalid wallet master key")
	ErrInvalidWalletID            = errors.New("invalid wallet id")
	ErrUnsupportedWalletAlgorithm = errors.New("unsupported wallet algorithm")
)
