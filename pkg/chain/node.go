// Package chain is the read-only boundary to a Substrate node: block
// resolution, headers and state storage at a pinned block.
package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockRef identifies the exact state view queried by a run.
type BlockRef struct {
	Number uint32
	Hash   common.Hash
}

func (r BlockRef) String() string {
	return fmt.Sprintf("#%d (%s)", r.Number, r.Hash.Hex())
}

// Header is the subset of a block header the tool reads.
type Header struct {
	ParentHash     common.Hash    `json:"parentHash"`
	Number         hexutil.Uint64 `json:"number"`
	StateRoot      common.Hash    `json:"stateRoot"`
	ExtrinsicsRoot common.Hash    `json:"extrinsicsRoot"`
}

// Node is the set of node queries a snapshot run needs. Lookups that find
// nothing return a nil result and a nil error.
type Node interface {
	// BlockHash returns the canonical hash of number, or the best block
	// hash when number is nil.
	BlockHash(ctx context.Context, number *uint32) (*common.Hash, error)
	Header(ctx context.Context, hash common.Hash) (*Header, error)
	// StorageKeysPaged lists up to count keys under prefix strictly after
	// startKey, in trie order, as of block at.
	StorageKeysPaged(ctx context.Context, prefix []byte, count int, startKey []byte, at common.Hash) ([][]byte, error)
	// StorageValues reads keys as of block at. Absent values are nil.
	StorageValues(ctx context.Context, keys [][]byte, at common.Hash) ([][]byte, error)
	Storage(ctx context.Context, key []byte, at common.Hash) ([]byte, error)
}
