// Package ss58 implements the SS58 checksummed address format used by
// Substrate chains for 32-byte account identifiers.
package ss58

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// AccountIDLen is the length of a raw account identifier.
	AccountIDLen = 32

	// SubstratePrefix is the generic Substrate network identifier.
	SubstratePrefix uint16 = 42

	// MaxPrefix is the largest identifier representable in the two-byte form.
	MaxPrefix uint16 = 16383

	checksumLen = 2
)

var checksumPreimage = []byte("SS58PRE")

var (
	ErrBadBase58   = errors.New("ss58: invalid base58")
	ErrBadLength   = errors.New("ss58: invalid length")
	ErrBadPrefix   = errors.New("ss58: invalid network prefix")
	ErrBadChecksum = errors.New("ss58: invalid checksum")
)

// AccountID is a raw 32-byte public-key-derived account identifier.
// Two AccountIDs are equal iff their bytes are equal.
type AccountID [AccountIDLen]byte

// AccountIDFromBytes copies b into an AccountID. b must be exactly 32 bytes.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDLen {
		return id, fmt.Errorf("%w: account id is %d bytes, want %d", ErrBadLength, len(b), AccountIDLen)
	}
	copy(id[:], b)
	return id, nil
}

// AccountIDFromHex parses a 0x-prefixed or bare hex account id.
func AccountIDFromHex(s string) (AccountID, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return AccountID{}, fmt.Errorf("ss58: invalid hex account id: %w", err)
	}
	return AccountIDFromBytes(b)
}

// Bytes returns a copy of the raw identifier.
func (id AccountID) Bytes() []byte {
	return bytes.Clone(id[:])
}

// Hex returns the 0x-prefixed hex form.
func (id AccountID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

// Encode returns the SS58 address of id under the given network prefix.
func (id AccountID) Encode(prefix uint16) string {
	s, err := Encode(id, prefix)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the address under the generic Substrate prefix.
func (id AccountID) String() string {
	return id.Encode(SubstratePrefix)
}

// Encode returns the SS58 address of id. Prefixes above MaxPrefix are rejected.
func Encode(id AccountID, prefix uint16) (string, error) {
	var ident []byte
	switch {
	case prefix < 64:
		ident = []byte{byte(prefix)}
	case prefix <= MaxPrefix:
		first := byte((prefix&0b1111_1100)>>2) | 0b0100_0000
		second := byte(prefix>>8) | byte((prefix&0b11)<<6)
		ident = []byte{first, second}
	default:
		return "", fmt.Errorf("%w: %d", ErrBadPrefix, prefix)
	}

	payload := make([]byte, 0, len(ident)+AccountIDLen+checksumLen)
	payload = append(payload, ident...)
	payload = append(payload, id[:]...)
	payload = append(payload, checksum(payload)[:checksumLen]...)
	return base58.Encode(payload), nil
}

// Decode parses an SS58 address, returning the account id and its network prefix.
func Decode(address string) (AccountID, uint16, error) {
	var id AccountID

	data := base58.Decode(address)
	if len(data) == 0 {
		return id, 0, ErrBadBase58
	}

	var (
		prefix   uint16
		identLen int
	)
	switch first := data[0]; {
	case first < 64:
		prefix, identLen = uint16(first), 1
	case first < 128:
		if len(data) < 2 {
			return id, 0, ErrBadLength
		}
		lower := (first << 2) | (data[1] >> 6)
		upper := data[1] & 0b0011_1111
		prefix, identLen = uint16(lower)|uint16(upper)<<8, 2
	default:
		return id, 0, fmt.Errorf("%w: leading byte %#x", ErrBadPrefix, first)
	}

	if len(data) != identLen+AccountIDLen+checksumLen {
		return id, 0, fmt.Errorf("%w: %d bytes", ErrBadLength, len(data))
	}

	body := data[:identLen+AccountIDLen]
	if !bytes.Equal(checksum(body)[:checksumLen], data[identLen+AccountIDLen:]) {
		return id, 0, ErrBadChecksum
	}

	copy(id[:], body[identLen:])
	return id, prefix, nil
}

// DecodeWithPrefix is Decode restricted to one network prefix.
func DecodeWithPrefix(address string, want uint16) (AccountID, error) {
	id, prefix, err := Decode(address)
	if err != nil {
		return id, err
	}
	if prefix != want {
		return AccountID{}, fmt.Errorf("%w: got %d, want %d", ErrBadPrefix, prefix, want)
	}
	return id, nil
}

func checksum(body []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(checksumPreimage)
	h.Write(body)
	return h.Sum(nil)
}
