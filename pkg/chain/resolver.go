package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/subspace/subspace-regenesis-tool/pkg/core"
)

// BlockSelector is the user's choice of block. A number takes precedence
// over a hash; with neither, the node's best block is used.
type BlockSelector struct {
	Number *uint32
	Hash   *common.Hash
}

// ResolveHash turns sel into a concrete block hash.
func ResolveHash(ctx context.Context, node Node, sel BlockSelector) (common.Hash, error) {
	switch {
	case sel.Number != nil:
		hash, err := node.BlockHash(ctx, sel.Number)
		if err != nil {
			return common.Hash{}, err
		}
		if hash == nil {
			return common.Hash{}, core.Errorf(core.KindBlockNotFound, "block hash for block number %d not found", *sel.Number)
		}
		return *hash, nil

	case sel.Hash != nil:
		return *sel.Hash, nil

	default:
		hash, err := node.BlockHash(ctx, nil)
		if err != nil {
			return common.Hash{}, err
		}
		if hash == nil {
			return common.Hash{}, core.Errorf(core.KindBlockNotFound, "best block hash not found")
		}
		return *hash, nil
	}
}

// FetchBlockRef reads the header of hash and pins the pair as a BlockRef.
func FetchBlockRef(ctx context.Context, node Node, hash common.Hash) (BlockRef, error) {
	header, err := node.Header(ctx, hash)
	if err != nil {
		return BlockRef{}, err
	}
	if header == nil {
		return BlockRef{}, core.Errorf(core.KindHeaderNotFound, "header for block hash %s not found", hash.Hex())
	}
	if uint64(header.Number) > uint64(^uint32(0)) {
		return BlockRef{}, core.Errorf(core.KindHeaderNotFound, "header for block hash %s has number %d beyond u32", hash.Hex(), uint64(header.Number))
	}
	return BlockRef{Number: uint32(header.Number), Hash: hash}, nil
}

// Resolve resolves sel and pins the resulting block.
func Resolve(ctx context.Context, node Node, sel BlockSelector) (BlockRef, error) {
	hash, err := ResolveHash(ctx, node, sel)
	if err != nil {
		return BlockRef{}, err
	}
	return FetchBlockRef(ctx, node, hash)
}
