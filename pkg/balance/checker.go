package balance

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
	"github.com/subspace/subspace-regenesis-tool/pkg/storage"
)

// StorageReader reads one storage value as of a block. A nil value means
// the key is absent.
type StorageReader interface {
	Storage(ctx context.Context, key []byte, at common.Hash) ([]byte, error)
}

// Info holds the retrieved record of one account.
type Info struct {
	Account ss58.AccountID
	Found   bool
	Record  *AccountInfo
}

// Total returns free + reserved, zero for an absent account.
func (i *Info) Total() *uint256.Int {
	if !i.Found {
		return new(uint256.Int)
	}
	return i.Record.Data.Total()
}

// Checker looks up single accounts directly by their System.Account key.
type Checker struct {
	node StorageReader
}

// NewChecker creates a new balance checker reading from node.
func NewChecker(node StorageReader) *Checker {
	return &Checker{node: node}
}

// GetBalance retrieves the record of id as of block at.
func (c *Checker) GetBalance(ctx context.Context, id ss58.AccountID, at common.Hash) (*Info, error) {
	value, err := c.node.Storage(ctx, storage.AccountKey(id), at)
	if err != nil {
		return nil, fmt.Errorf("failed to read account %s: %w", id, err)
	}
	if value == nil {
		return &Info{Account: id}, nil
	}

	record, err := DecodeAccountInfo(value)
	if err != nil {
		return nil, err
	}
	return &Info{Account: id, Found: true, Record: record}, nil
}
