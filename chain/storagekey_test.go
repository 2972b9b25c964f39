package chain

import (
	"bytes"
	"testing"

	"github.com/opentensor/subtensor-go/metadata"
)

func TestStorageKeyPrefixIs32Bytes(t *testing.T) {
	prefix := StorageKeyPrefix("SubtensorModule", "NetworksAdded")
	if len(prefix) != 32 {
		t.Fatalf("prefix length = %d, want 32", len(prefix))
	}
}

func TestStorageKeyPrefixIsStableAndDistinct(t *testing.T) {
	a := StorageKeyPrefix("SubtensorModule", "NetworksAdded")
	b := StorageKeyPrefix("SubtensorModule", "NetworksAdded")
	if !bytes.Equal(a, b) {
		t.Fatal("StorageKeyPrefix is not deterministic")
	}
	c := StorageKeyPrefix("SubtensorModule", "Uids")
	if bytes.Equal(a, c) {
		t.Fatal("StorageKeyPrefix should differ for different item names")
	}
}

func TestComposeStorageKeyRejectsLengthMismatch(t *testing.T) {
	_, err := ComposeStorageKey("Pallet", "Item", []metadata.Hasher{metadata.HasherTwox64Concat}, nil)
	if err == nil {
		t.Fatal("expected an error when hashers and encodedKeys lengths differ")
	}
}

func TestComposeStorageKeyIdentityAppendsPlaintext(t *testing.T) {
	key, err := ComposeStorageKey("Pallet", "Item", []metadata.Hasher{metadata.HasherIdentity}, [][]byte{{1, 2, 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prefix := StorageKeyPrefix("Pallet", "Item")
	if !bytes.Equal(key[:32], prefix) {
		t.Fatal("key does not start with the pallet||item prefix")
	}
	if !bytes.Equal(key[32:], []byte{1, 2, 3}) {
		t.Fatalf("identity hasher suffix = %v, want the plaintext key unchanged", key[32:])
	}
}

func TestComposeStorageKeyConcatHashersAppendPlaintextSuffix(t *testing.T) {
	encoded := []byte{9, 9, 9, 9}
	key, err := ComposeStorageKey("Pallet", "Item", []metadata.Hasher{metadata.HasherBlake2_128Concat}, [][]byte{encoded})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 32-byte prefix + 16-byte blake2_128 hash + 4-byte plaintext suffix.
	if len(key) != 32+16+4 {
		t.Fatalf("key length = %d, want %d", len(key), 32+16+4)
	}
	if !bytes.Equal(key[len(key)-4:], encoded) {
		t.Fatal("Blake2_128Concat should append the plaintext key after the hash")
	}
}

func TestComposeStorageKeyNoMapKeysIsJustThePrefix(t *testing.T) {
	key, err := ComposeStorageKey("Pallet", "Item", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(key, StorageKeyPrefix("Pallet", "Item")) {
		t.Fatal("a plain value entry's key should equal the bare prefix")
	}
}

func TestHashKeyTwox128Is16Bytes(t *testing.T) {
	h := hashKey(metadata.HasherTwox128, []byte("hello"))
	if len(h) != 16 {
		t.Fatalf("Twox128 hash length = %d, want 16", len(h))
	}
}

func TestHashKeyBlake2_256Is32Bytes(t *testing.T) {
	h := hashKey(metadata.HasherBlake2_256, []byte("hello"))
	if len(h) != 32 {
		t.Fatalf("Blake2_256 hash length = %d, want 32", len(h))
	}
}
