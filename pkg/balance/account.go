// Package balance decodes the SCALE-encoded account records of a Substrate chain.
package balance

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/subspace/subspace-regenesis-tool/pkg/core"
)

const (
	u32Len  = 4
	u128Len = 16

	// AccountInfoLen is nonce, consumers, providers, sufficients (u32 each)
	// followed by free, reserved, misc_frozen, fee_frozen (u128 each).
	AccountInfoLen = 4*u32Len + 4*u128Len
)

// AccountInfo is the SCALE-encoded value stored under a System.Account key.
type AccountInfo struct {
	Nonce       uint32
	Consumers   uint32
	Providers   uint32
	Sufficients uint32
	Data        AccountData
}

// AccountData holds the balance portion of an AccountInfo.
type AccountData struct {
	Free       *uint256.Int
	Reserved   *uint256.Int
	MiscFrozen *uint256.Int
	FeeFrozen  *uint256.Int
}

// Total is free + reserved.
func (d AccountData) Total() *uint256.Int {
	return new(uint256.Int).Add(d.Free, d.Reserved)
}

// DecodeAccountInfo decodes an AccountInfo. Any length other than
// AccountInfoLen is rejected as MalformedBalanceRecord.
func DecodeAccountInfo(value []byte) (*AccountInfo, error) {
	if len(value) != AccountInfoLen {
		return nil, core.Errorf(core.KindMalformedBalanceRecord, "account info is %d bytes, want %d", len(value), AccountInfoLen)
	}

	info := &AccountInfo{
		Nonce:       binary.LittleEndian.Uint32(value[0:]),
		Consumers:   binary.LittleEndian.Uint32(value[4:]),
		Providers:   binary.LittleEndian.Uint32(value[8:]),
		Sufficients: binary.LittleEndian.Uint32(value[12:]),
	}

	data := value[4*u32Len:]
	info.Data = AccountData{
		Free:       decodeU128(data[0*u128Len:]),
		Reserved:   decodeU128(data[1*u128Len:]),
		MiscFrozen: decodeU128(data[2*u128Len:]),
		FeeFrozen:  decodeU128(data[3*u128Len:]),
	}
	return info, nil
}

// EncodeAccountInfo is the inverse of DecodeAccountInfo. Values wider than
// 128 bits are truncated.
func EncodeAccountInfo(info *AccountInfo) []byte {
	out := make([]byte, AccountInfoLen)
	binary.LittleEndian.PutUint32(out[0:], info.Nonce)
	binary.LittleEndian.PutUint32(out[4:], info.Consumers)
	binary.LittleEndian.PutUint32(out[8:], info.Providers)
	binary.LittleEndian.PutUint32(out[12:], info.Sufficients)

	data := out[4*u32Len:]
	for i, v := range []*uint256.Int{info.Data.Free, info.Data.Reserved, info.Data.MiscFrozen, info.Data.FeeFrozen} {
		putU128(data[i*u128Len:], v)
	}
	return out
}

// DecodeU128 decodes a SCALE u128. An empty value is the storage default, zero.
func DecodeU128(value []byte) (*uint256.Int, error) {
	switch len(value) {
	case 0:
		return new(uint256.Int), nil
	case u128Len:
		return decodeU128(value), nil
	default:
		return nil, core.Errorf(core.KindMalformedBalanceRecord, "u128 is %d bytes, want %d", len(value), u128Len)
	}
}

// EncodeU128 encodes v as a SCALE u128.
func EncodeU128(v *uint256.Int) []byte {
	out := make([]byte, u128Len)
	putU128(out, v)
	return out
}

func decodeU128(b []byte) *uint256.Int {
	return &uint256.Int{
		binary.LittleEndian.Uint64(b[0:]),
		binary.LittleEndian.Uint64(b[8:]),
		0,
		0,
	}
}

func putU128(b []byte, v *uint256.Int) {
	if v == nil {
		v = new(uint256.Int)
	}
	binary.LittleEndian.PutUint64(b[0:], v[0])
	binary.LittleEndian.PutUint64(b[8:], v[1])
}
