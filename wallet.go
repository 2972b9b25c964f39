package subtensor

import (
	"fmt"

	"github.com/opentensor/subtensor-go/chain"
	"github.com/opentensor/subtensor-go/ss58"
)

// Keypair is the cryptographic collaborator a caller supplies for each key
// slot of a Wallet: sign a payload and report the ss58 address/public key
// it signs for.
type Keypair interface {
	Sign(payload []byte) ([]byte, error)
	SS58Address() string
	PublicKey() [32]byte
	Scheme() chain.SignatureScheme
}

// Wallet bundles the three key slots the facade's extrinsic paths draw
// from: coldkey signs funds-moving calls, hotkey signs operational calls,
// coldkeypub identifies the coldkey's address without being able to sign
// (used for unsigned fee-estimation paths).
type Wallet struct {
	Coldkey    Keypair
	Hotkey     Keypair
	Coldkeypub [32]byte
	HotkeyStr  string
}

// keypairSigner adapts a Keypair to chain.Signer.
type keypairSigner struct{ kp Keypair }

func (s keypairSigner) Sign(payload []byte) ([]byte, error) { return s.kp.Sign(payload) }
func (s keypairSigner) PublicKey() [32]byte                 { return s.kp.PublicKey() }
func (s keypairSigner) Scheme() chain.SignatureScheme        { return s.kp.Scheme() }

// HotkeyAddress returns the hotkey's ss58 address.
func (w Wallet) HotkeyAddress() (ss58.Address, error) {
	if w.Hotkey == nil {
		return ss58.Address{}, fmt.Errorf("subtensor: wallet has no hotkey")
	}
	pub := w.Hotkey.PublicKey()
	return ss58.FromPublicKey(pub[:])
}

// ColdkeyAddress returns the coldkey's ss58 address.
func (w Wallet) ColdkeyAddress() (ss58.Address, error) {
	if w.Coldkey == nil {
		return ss58.Address{}, fmt.Errorf("subtensor: wallet has no coldkey")
	}
	pub := w.Coldkey.PublicKey()
	return ss58.FromPublicKey(pub[:])
}

// resolveSigner validates sign_with and returns the signing address plus a
// chain.Signer, or (address, nil) for the unsigned coldkeypub path.
func (w Wallet) resolveSigner(signWith chain.SignWith) (string, chain.Signer, error) {
	switch signWith {
	case chain.SignWithColdkey:
		if w.Coldkey == nil {
			return "", nil, fmt.Errorf("subtensor: wallet has no coldkey")
		}
		return w.Coldkey.SS58Address(), keypairSigner{w.Coldkey}, nil
	case chain.SignWithHotkey:
		if w.Hotkey == nil {
			return "", nil, fmt.Errorf("subtensor: wallet has no hotkey")
		}
		return w.Hotkey.SS58Address(), keypairSigner{w.Hotkey}, nil
	case chain.SignWithColdkeypub:
		addr, err := ss58.FromPublicKey(w.Coldkeypub[:])
		if err != nil {
			return "", nil, err
		}
		return addr.String(), nil, nil
	default:
		return "", nil, fmt.Errorf("subtensor: invalid sign_with %d", signWith)
	}
}
