package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/subspace/subspace-regenesis-tool/pkg/balance"
	"github.com/subspace/subspace-regenesis-tool/pkg/storage"
)

// TotalIssuance reads Balances.TotalIssuance as of block at. An absent
// value is the storage default, zero.
func TotalIssuance(ctx context.Context, node Node, at common.Hash) (*uint256.Int, error) {
	value, err := node.Storage(ctx, storage.TotalIssuanceKey, at)
	if err != nil {
		return nil, fmt.Errorf("failed to read total issuance at %s: %w", at.Hex(), err)
	}
	return balance.DecodeU128(value)
}

// NodeIssuance reads the chain's recorded issuance from a node.
type NodeIssuance struct {
	Node Node
}

func (n NodeIssuance) TotalIssuance(ctx context.Context, at common.Hash) (*uint256.Int, error) {
	return TotalIssuance(ctx, n.Node, at)
}
