package derivation

import "errors"

var (
	ErrExtendedKeyRequired = errors.New("extended key is required")
	ErrNotXprvOrXpub       = errors.New("extended key is not a valid xprv or xpub")
	ErrNotFprvOrFpub       = errors.New("extended key is not a valid fprv or fpub")
	ErrInvalidPath         = errors.New("invalid derivation path")
	ErrUnsupportedAsset    = errors.New("unsupported asset")
	ErrNoKeySet            = errors.New("no keyset covers the requested account")
	ErrInvalidRange        = errors.New("invalid address index range")
)
