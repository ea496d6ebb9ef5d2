// Package chaintest provides an in-memory chain.Node for tests.
package chaintest

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/subspace/subspace-regenesis-tool/pkg/chain"
)

// ErrUnknownBlock is returned for storage reads at a block the fake does not hold.
var ErrUnknownBlock = errors.New("chaintest: unknown block")

// Node is an in-memory chain.Node. It records the block hash of every
// storage read so tests can check that a run stays pinned.
type Node struct {
	mu sync.Mutex

	best    *common.Hash
	hashes  map[uint32]common.Hash
	headers map[common.Hash]*chain.Header
	state   map[common.Hash]map[string][]byte

	// FailKeysAfter makes StorageKeysPaged fail once it has served that many pages.
	FailKeysAfter int
	KeyPages      int
	ReadsAt       []common.Hash
}

// NewNode returns an empty fake node.
func NewNode() *Node {
	return &Node{
		hashes:  make(map[uint32]common.Hash),
		headers: make(map[common.Hash]*chain.Header),
		state:   make(map[common.Hash]map[string][]byte),
	}
}

// AddBlock registers a canonical block and makes it the best block.
func (n *Node) AddBlock(number uint32, hash common.Hash) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.hashes[number] = hash
	n.headers[hash] = &chain.Header{Number: hexutil.Uint64(number)}
	if _, ok := n.state[hash]; !ok {
		n.state[hash] = make(map[string][]byte)
	}
	h := hash
	n.best = &h
}

// AddOrphanHeader registers a header whose hash is not canonical for any number.
func (n *Node) AddOrphanHeader(number uint32, hash common.Hash) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.headers[hash] = &chain.Header{Number: hexutil.Uint64(number)}
	if _, ok := n.state[hash]; !ok {
		n.state[hash] = make(map[string][]byte)
	}
}

// Put writes a storage value at block hash.
func (n *Node) Put(at common.Hash, key, value []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()

	st, ok := n.state[at]
	if !ok {
		st = make(map[string][]byte)
		n.state[at] = st
	}
	st[string(key)] = bytes.Clone(value)
}

func (n *Node) BlockHash(_ context.Context, number *uint32) (*common.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if number == nil {
		return n.best, nil
	}
	hash, ok := n.hashes[*number]
	if !ok {
		return nil, nil
	}
	return &hash, nil
}

func (n *Node) Header(_ context.Context, hash common.Hash) (*chain.Header, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.headers[hash], nil
}

func (n *Node) StorageKeysPaged(_ context.Context, prefix []byte, count int, startKey []byte, at common.Hash) ([][]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.ReadsAt = append(n.ReadsAt, at)
	if n.FailKeysAfter > 0 && n.KeyPages >= n.FailKeysAfter {
		return nil, errors.New("chaintest: connection reset")
	}
	n.KeyPages++

	st, ok := n.state[at]
	if !ok {
		return nil, ErrUnknownBlock
	}

	var keys [][]byte
	for k := range st {
		key := []byte(k)
		if bytes.HasPrefix(key, prefix) && bytes.Compare(key, startKey) > 0 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	if len(keys) > count {
		keys = keys[:count]
	}
	return keys, nil
}

func (n *Node) StorageValues(ctx context.Context, keys [][]byte, at common.Hash) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, key := range keys {
		v, err := n.Storage(ctx, key, at)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (n *Node) Storage(_ context.Context, key []byte, at common.Hash) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.ReadsAt = append(n.ReadsAt, at)
	st, ok := n.state[at]
	if !ok {
		return nil, ErrUnknownBlock
	}
	v, ok := st[string(key)]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v), nil
}
