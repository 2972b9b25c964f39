package chain

// SignatureScheme identifies which crypto a Signer produces signatures
// with, needed to pick the right MultiSignature variant discriminant.
type SignatureScheme int

const (
	SchemeEd25519 SignatureScheme = iota
	SchemeSr25519
)

// Signer is the cryptographic collaborator this package consumes; it is
// the chain-layer view of  `Keypair` (sign + ss58_address).
// The root `subtensor` package adapts its external Wallet/Keypair types to
// this interface rather than the other way around, keeping `chain` free of
// any dependency on wallet storage concerns.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
	PublicKey() [32]byte
	Scheme() SignatureScheme
}
