package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// RPCNode talks to a node over its JSON-RPC endpoint (ws:// or http://).
type RPCNode struct {
	client  *rpc.Client
	timeout time.Duration
}

// Dial connects to url. A non-zero timeout bounds every individual call.
func Dial(ctx context.Context, url string, timeout time.Duration) (*RPCNode, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return NewRPCNode(client, timeout), nil
}

// NewRPCNode wraps an existing client.
func NewRPCNode(client *rpc.Client, timeout time.Duration) *RPCNode {
	return &RPCNode{client: client, timeout: timeout}
}

// Close closes the underlying connection.
func (n *RPCNode) Close() {
	n.client.Close()
}

func (n *RPCNode) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if n.timeout > 0 {
		return context.WithTimeout(ctx, n.timeout)
	}
	return context.WithCancel(ctx)
}

func (n *RPCNode) BlockHash(ctx context.Context, number *uint32) (*common.Hash, error) {
	ctx, cancel := n.callCtx(ctx)
	defer cancel()

	var (
		hash *common.Hash
		err  error
	)
	if number != nil {
		err = n.client.CallContext(ctx, &hash, "chain_getBlockHash", *number)
	} else {
		err = n.client.CallContext(ctx, &hash, "chain_getBlockHash")
	}
	if err != nil {
		return nil, fmt.Errorf("chain_getBlockHash: %w", err)
	}
	return hash, nil
}

func (n *RPCNode) Header(ctx context.Context, hash common.Hash) (*Header, error) {
	ctx, cancel := n.callCtx(ctx)
	defer cancel()

	var header *Header
	if err := n.client.CallContext(ctx, &header, "chain_getHeader", hash); err != nil {
		return nil, fmt.Errorf("chain_getHeader %s: %w", hash.Hex(), err)
	}
	return header, nil
}

func (n *RPCNode) StorageKeysPaged(ctx context.Context, prefix []byte, count int, startKey []byte, at common.Hash) ([][]byte, error) {
	ctx, cancel := n.callCtx(ctx)
	defer cancel()

	// An empty start key must go over the wire as null, not "0x".
	var start interface{}
	if len(startKey) > 0 {
		start = hexutil.Bytes(startKey)
	}

	var keys []hexutil.Bytes
	if err := n.client.CallContext(ctx, &keys, "state_getKeysPaged", hexutil.Bytes(prefix), count, start, at); err != nil {
		return nil, fmt.Errorf("state_getKeysPaged: %w", err)
	}

	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out, nil
}

func (n *RPCNode) StorageValues(ctx context.Context, keys [][]byte, at common.Hash) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	ctx, cancel := n.callCtx(ctx)
	defer cancel()

	results := make([]*hexutil.Bytes, len(keys))
	batch := make([]rpc.BatchElem, len(keys))
	for i, key := range keys {
		batch[i] = rpc.BatchElem{
			Method: "state_getStorage",
			Args:   []interface{}{hexutil.Bytes(key), at},
			Result: &results[i],
		}
	}
	if err := n.client.BatchCallContext(ctx, batch); err != nil {
		return nil, fmt.Errorf("state_getStorage batch: %w", err)
	}

	out := make([][]byte, len(keys))
	for i, elem := range batch {
		if elem.Error != nil {
			return nil, fmt.Errorf("state_getStorage 0x%x: %w", keys[i], elem.Error)
		}
		if results[i] != nil {
			out[i] = *results[i]
		}
	}
	return out, nil
}

func (n *RPCNode) Storage(ctx context.Context, key []byte, at common.Hash) ([]byte, error) {
	ctx, cancel := n.callCtx(ctx)
	defer cancel()

	var value *hexutil.Bytes
	if err := n.client.CallContext(ctx, &value, "state_getStorage", hexutil.Bytes(key), at); err != nil {
		return nil, fmt.Errorf("state_getStorage 0x%x: %w", key, err)
	}
	if value == nil {
		return nil, nil
	}
	return *value, nil
}
