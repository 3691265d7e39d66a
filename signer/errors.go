package signer

import "errors"

var (
	ErrNoPrivateKey   = errors.New("cannot sign without a derived private key")
	ErrInvalidDigest  = errors.New("ecdsa signing requires a 32 byte digest")
	ErrInvalidPrivKey = errors.New("invalid private key")
)
