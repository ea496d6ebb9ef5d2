package source

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/subspace/subspace-regenesis-tool/pkg/chain"
	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/storage"
)

const (
	DefaultPageSize = 512
	// MaxPageSize is the node-side cap on state_getKeysPaged.
	MaxPageSize = 1000
)

// RPCStream pages through the System.Account namespace of one block.
type RPCStream struct {
	node     chain.Node
	at       common.Hash
	prefix   []byte
	pageSize int

	// OnPage, if set, is called after every fetched page with its size.
	OnPage func(entries int)

	page    []RawEntry
	pos     int
	lastKey []byte
	done    bool
	err     error
}

// NewRPCStream streams every account at block at, pageSize keys per request.
func NewRPCStream(node chain.Node, at common.Hash, pageSize int) *RPCStream {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &RPCStream{
		node:     node,
		at:       at,
		prefix:   storage.SystemAccountPrefix,
		pageSize: pageSize,
	}
}

func (s *RPCStream) Next(ctx context.Context) (RawEntry, bool, error) {
	for s.pos >= len(s.page) {
		if s.err != nil {
			return RawEntry{}, false, s.err
		}
		if s.done {
			return RawEntry{}, false, nil
		}
		if err := s.fetch(ctx); err != nil {
			s.err = err
			s.page, s.pos = nil, 0
			return RawEntry{}, false, err
		}
	}
	e := s.page[s.pos]
	s.pos++
	return e, true, nil
}

func (s *RPCStream) fetch(ctx context.Context) error {
	keys, err := s.node.StorageKeysPaged(ctx, s.prefix, s.pageSize, s.lastKey, s.at)
	if err != nil {
		return fmt.Errorf("failed to list account keys after 0x%x: %w", s.lastKey, err)
	}
	if len(keys) == 0 {
		s.done = true
		s.page, s.pos = nil, 0
		return nil
	}
	if len(keys) > s.pageSize {
		return fmt.Errorf("node returned %d keys for a page of %d", len(keys), s.pageSize)
	}

	prev := s.lastKey
	for _, key := range keys {
		if !bytes.HasPrefix(key, s.prefix) {
			return core.Errorf(core.KindMalformedAccountKey, "key 0x%x is outside the System.Account namespace", key)
		}
		if prev != nil && bytes.Compare(key, prev) <= 0 {
			return fmt.Errorf("node returned key 0x%x out of order after 0x%x", key, prev)
		}
		prev = key
	}

	values, err := s.node.StorageValues(ctx, keys, s.at)
	if err != nil {
		return fmt.Errorf("failed to read %d account values: %w", len(keys), err)
	}
	if len(values) != len(keys) {
		return fmt.Errorf("node returned %d values for %d keys", len(values), len(keys))
	}

	page := make([]RawEntry, len(keys))
	for i := range keys {
		if values[i] == nil {
			return core.Errorf(core.KindMalformedBalanceRecord, "listed key 0x%x has no value", keys[i])
		}
		page[i] = RawEntry{Key: keys[i], Value: values[i]}
	}

	s.page, s.pos = page, 0
	s.lastKey = keys[len(keys)-1]
	if len(keys) < s.pageSize {
		s.done = true
	}
	if s.OnPage != nil {
		s.OnPage(len(page))
	}
	return nil
}
