// Package signer signs the Release file of an exported index with OpenPGP.
package signer

// Signer interface for signing repository metadata
type Signer interface {
	// SignCleartext creates a cleartext signature (InRelease)
	SignCleartext(data []byte) ([]byte, error)

	// SignDetached creates an armored detached signature (Release.gpg)
	SignDetached(data []byte) ([]byte, error)

	// PublicKey returns the armored public key
	PublicKey() ([]byte, error)
}
