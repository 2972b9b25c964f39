package subtensor

import (
	"testing"

	"github.com/opentensor/subtensor-go/chain"
)

type fakeKeypair struct {
	pub    [32]byte
	scheme chain.SignatureScheme
}

func (k fakeKeypair) Sign(payload []byte) ([]byte, error) { return make([]byte, 64), nil }
func (k fakeKeypair) SS58Address() string                 { return "fake-address" }
func (k fakeKeypair) PublicKey() [32]byte                 { return k.pub }
func (k fakeKeypair) Scheme() chain.SignatureScheme       { return k.scheme }

func TestResolveSignerColdkey(t *testing.T) {
	w := Wallet{Coldkey: fakeKeypair{pub: [32]byte{1}, scheme: chain.SchemeSr25519}}
	addr, signer, err := w.resolveSigner(chain.SignWithColdkey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "fake-address" {
		t.Fatalf("address = %q, want %q", addr, "fake-address")
	}
	if signer == nil {
		t.Fatal("signer should not be nil for SignWithColdkey")
	}
}

func TestResolveSignerMissingHotkey(t *testing.T) {
	w := Wallet{}
	_, _, err := w.resolveSigner(chain.SignWithHotkey)
	if err == nil {
		t.Fatal("expected an error for a wallet with no hotkey")
	}
}

func TestResolveSignerColdkeypubIsUnsigned(t *testing.T) {
	w := Wallet{Coldkeypub: [32]byte{9, 9, 9}}
	addr, signer, err := w.resolveSigner(chain.SignWithColdkeypub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signer != nil {
		t.Fatal("signer should be nil for SignWithColdkeypub")
	}
	if addr == "" {
		t.Fatal("address should not be empty for SignWithColdkeypub")
	}
}

func TestResolveSignerInvalidSignWith(t *testing.T) {
	w := Wallet{}
	_, _, err := w.resolveSigner(chain.SignWith(99))
	if err == nil {
		t.Fatal("expected an error for an invalid sign_with value")
	}
}

func TestHotkeyAddressRequiresHotkey(t *testing.T) {
	w := Wallet{}
	_, err := w.HotkeyAddress()
	if err == nil {
		t.Fatal("expected an error for a wallet with no hotkey")
	}
}

func TestHotkeyAddressDerivesFromPublicKey(t *testing.T) {
	w := Wallet{Hotkey: fakeKeypair{pub: [32]byte{5, 5, 5}, scheme: chain.SchemeEd25519}}
	addr, err := w.HotkeyAddress()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr.IsZero() {
		t.Fatal("derived hotkey address should not be zero")
	}
}
