// Package storage derives Substrate storage keys and decodes the SCALE
// values stored under them.
package storage

import (
	"bytes"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
)

const (
	// PrefixLen is twox128(pallet) ++ twox128(item).
	PrefixLen = 32
	// Blake2_128Len is the hash component of a blake2_128_concat key.
	Blake2_128Len = 16
	// AccountKeyLen is the full length of a System.Account key.
	AccountKeyLen = PrefixLen + Blake2_128Len + ss58.AccountIDLen
)

var (
	// SystemAccountPrefix is the storage namespace holding every account.
	SystemAccountPrefix = StoragePrefix("System", "Account")
	// TotalIssuanceKey holds the chain's own sum of all balances.
	TotalIssuanceKey = StoragePrefix("Balances", "TotalIssuance")
)

// Twox128 is the 128-bit xxhash used for pallet and item names.
func Twox128(data []byte) []byte {
	out := make([]byte, 16)
	for seed := uint64(0); seed < 2; seed++ {
		h := xxhash.NewWithSeed(seed)
		h.Write(data)
		binary.LittleEndian.PutUint64(out[seed*8:], h.Sum64())
	}
	return out
}

// Blake2_128 is the 128-bit blake2b used to hash map keys.
func Blake2_128(data []byte) []byte {
	h, _ := blake2b.New(Blake2_128Len, nil)
	h.Write(data)
	return h.Sum(nil)
}

// StoragePrefix returns twox128(pallet) ++ twox128(item).
func StoragePrefix(pallet, item string) []byte {
	key := make([]byte, 0, PrefixLen)
	key = append(key, Twox128([]byte(pallet))...)
	return append(key, Twox128([]byte(item))...)
}

// AccountKey returns the System.Account key of id.
func AccountKey(id ss58.AccountID) []byte {
	key := make([]byte, 0, AccountKeyLen)
	key = append(key, SystemAccountPrefix...)
	key = append(key, Blake2_128(id[:])...)
	return append(key, id[:]...)
}

// AccountIDFromKey extracts the account id suffix of a System.Account key.
// The namespace prefix and the blake2_128 component are both checked.
func AccountIDFromKey(key []byte) (ss58.AccountID, error) {
	var id ss58.AccountID
	if len(key) != AccountKeyLen {
		return id, core.Errorf(core.KindMalformedAccountKey, "key 0x%x is %d bytes, want %d", key, len(key), AccountKeyLen)
	}
	if !bytes.Equal(key[:PrefixLen], SystemAccountPrefix) {
		return id, core.Errorf(core.KindMalformedAccountKey, "key 0x%x is outside the System.Account namespace", key)
	}

	hash, suffix := key[PrefixLen:PrefixLen+Blake2_128Len], key[PrefixLen+Blake2_128Len:]
	if !bytes.Equal(hash, Blake2_128(suffix)) {
		return id, core.Errorf(core.KindMalformedAccountKey, "key 0x%x has a mismatched blake2_128 component", key)
	}
	copy(id[:], suffix)
	return id, nil
}
