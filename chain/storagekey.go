// Package chain implements the storage, runtime-API, block, extrinsic and
// weight commit/reveal layers, built on top of the rpc transport, the
// metadata cache and the scale codec.
package chain

import (
	"encoding/binary"
	"fmt"

	"github.com/OneOfOne/xxhash"
	"golang.org/x/crypto/blake2b"

	"github.com/opentensor/subtensor-go/metadata"
)

// twoxSeeded is one genuinely seeded XXH64 pass: XXH64(data, seed), the
// primitive Substrate's "TwoxN" hashers are built from (not XXH64(seed||
// data), which is a different, incompatible digest).
func twoxSeeded(data []byte, seed uint64) []byte {
	sum := xxhash.Checksum64S(data, seed)
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, sum)
	return out
}

func twox64(data []byte) []byte {
	return twoxSeeded(data, 0)
}

// twox128 concatenates two independently seeded XXH64 passes (seeds 0 and
// 1), the scheme Substrate calls "Twox128".
func twox128(data []byte) []byte {
	out := make([]byte, 16)
	copy(out[0:8], twoxSeeded(data, 0))
	copy(out[8:16], twoxSeeded(data, 1))
	return out
}

func twox256(data []byte) []byte {
	out := make([]byte, 32)
	copy(out[0:8], twoxSeeded(data, 0))
	copy(out[8:16], twoxSeeded(data, 1))
	copy(out[16:24], twoxSeeded(data, 2))
	copy(out[24:32], twoxSeeded(data, 3))
	return out
}

func blake2_128(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return h.Sum(nil)
}

func blake2_256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// hashKey applies h to encodedKey, appending the plaintext bytes after the
// hash for the "Concat" variants so the suffix is recoverable when decoding
// query_map results.
func hashKey(h metadata.Hasher, encodedKey []byte) []byte {
	switch h {
	case metadata.HasherIdentity:
		return append([]byte{}, encodedKey...)
	case metadata.HasherBlake2_128:
		return blake2_128(encodedKey)
	case metadata.HasherBlake2_128Concat:
		return append(blake2_128(encodedKey), encodedKey...)
	case metadata.HasherBlake2_256:
		return blake2_256(encodedKey)
	case metadata.HasherTwox64Concat:
		return append(twox64(encodedKey), encodedKey...)
	case metadata.HasherTwox128:
		return twox128(encodedKey)
	case metadata.HasherTwox256:
		return twox256(encodedKey)
	default:
		return blake2_128(encodedKey)
	}
}

// StorageKeyPrefix returns the pallet||item 32-byte prefix shared by every
// entry in one storage item, before any map keys are appended.
func StorageKeyPrefix(pallet, item string) []byte {
	return append(twox128([]byte(pallet)), twox128([]byte(item))...)
}

// ComposeStorageKey builds the full storage key for a (possibly zero-key)
// entry: `twox128(pallet) || twox128(item) || hasher(key1) || ... ||
// hasher(keyN)`.
//
// encodedKeys must already be SCALE-encoded in declaration order; hashers
// must be the same length (both slices are empty when the entry is a plain
// value).
func ComposeStorageKey(pallet, item string, hashers []metadata.Hasher, encodedKeys [][]byte) ([]byte, error) {
	if len(hashers) != len(encodedKeys) {
		return nil, fmt.Errorf("chain: %d hashers but %d encoded key parts", len(hashers), len(encodedKeys))
	}
	key := StorageKeyPrefix(pallet, item)
	for i, part := range encodedKeys {
		key = append(key, hashKey(hashers[i], part)...)
	}
	return key, nil
}
