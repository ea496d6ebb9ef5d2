// Package reconcile classifies every account of a pinned block and proves
// the classification complete against the chain's recorded total issuance.
package reconcile

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/luxfi/log"

	"github.com/subspace/subspace-regenesis-tool/pkg/chain"
	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/exclusion"
	"github.com/subspace/subspace-regenesis-tool/pkg/snapshot"
	"github.com/subspace/subspace-regenesis-tool/pkg/source"
)

// State is the position of an Engine in its single run.
type State int

const (
	Idle State = iota
	Streaming
	Reconciling
	Verified
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Reconciling:
		return "reconciling"
	case Verified:
		return "verified"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	classExcluded = "excluded"
	classNew      = "new"
)

// IssuanceReader reads the chain's own recorded total issuance.
type IssuanceReader interface {
	TotalIssuance(ctx context.Context, at common.Hash) (*uint256.Int, error)
}

// Result is the outcome of a verified run.
type Result struct {
	Snapshot    *snapshot.Snapshot
	Streamed    int
	Excluded    int
	Accumulated *uint256.Int
}

// Engine partitions the accounts of one block into excluded and new ones.
// An Engine runs once.
type Engine struct {
	log        log.Logger
	exclusions *exclusion.Set
	metrics    *Metrics
	state      State
}

// New creates an engine. metrics may be nil.
func New(logger log.Logger, exclusions *exclusion.Set, metrics *Metrics) *Engine {
	return &Engine{
		log:        logger,
		exclusions: exclusions,
		metrics:    metrics,
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	return e.state
}

// Run drains stream, which must belong to block, and verifies the sum of
// every account's free and reserved balance against the issuance recorded at
// the same block. Any failure is fatal and leaves the engine Failed.
func (e *Engine) Run(ctx context.Context, block chain.BlockRef, stream source.Stream, issuance IssuanceReader) (*Result, error) {
	if e.state != Idle {
		return nil, fmt.Errorf("engine already ran (state %s)", e.state)
	}

	res, err := e.run(ctx, block, stream, issuance)
	if err != nil {
		e.state = Failed
		e.log.Error("Snapshot run failed", "block", block.Number, "hash", block.Hash, "error", err)
		return nil, err
	}
	e.state = Verified
	return res, nil
}

func (e *Engine) run(ctx context.Context, block chain.BlockRef, stream source.Stream, issuance IssuanceReader) (*Result, error) {
	e.state = Streaming
	e.log.Info("Streaming accounts", "block", block.Number, "hash", block.Hash)

	var (
		accumulated = new(uint256.Int)
		entries     = make([]snapshot.Entry, 0)
		streamed    int
		excluded    int
	)

	for {
		raw, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		acct, err := source.Decode(raw)
		if err != nil {
			return nil, err
		}
		streamed++

		data := acct.Info.Data
		total := data.Total()
		accumulated.Add(accumulated, total)

		if e.exclusions.Contains(acct.ID) {
			excluded++
			e.metrics.observeAccount(classExcluded)
			continue
		}

		// New accounts must hold free balance only.
		if !total.Eq(data.Free) {
			return nil, core.Errorf(core.KindUnexpectedReservedBalance,
				"account %s has free %s and reserved %s", acct.ID, data.Free.Dec(), data.Reserved.Dec())
		}
		entries = append(entries, snapshot.Entry{Account: acct.ID, Balance: total})
		e.metrics.observeAccount(classNew)
	}

	e.state = Reconciling
	e.log.Info("Reconciling issuance", "accounts", streamed, "excluded", excluded, "new", len(entries))

	expected, err := issuance.TotalIssuance(ctx, block.Hash)
	if err != nil {
		return nil, err
	}
	e.metrics.observeIssuance(accumulated, expected)

	if !accumulated.Eq(expected) {
		return nil, core.Errorf(core.KindIssuanceMismatch,
			"accounts at block #%d sum to %s but the chain records %s", block.Number, accumulated.Dec(), expected.Dec())
	}

	e.log.Info("Issuance verified", "issuance", expected.Dec(), "accounts", streamed)
	return &Result{
		Snapshot:    &snapshot.Snapshot{Block: block, Entries: entries},
		Streamed:    streamed,
		Excluded:    excluded,
		Accumulated: accumulated,
	}, nil
}
