// Package snapshot holds the verified set of new accounts and writes it
// out as the regenesis balance file.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/subspace/subspace-regenesis-tool/pkg/chain"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
)

// Entry is one new account and its total balance.
type Entry struct {
	Account ss58.AccountID
	Balance *uint256.Int
}

// Snapshot is the ordered set of new accounts at one block.
type Snapshot struct {
	Block   chain.BlockRef
	Entries []Entry
}

// TotalIssuance is the sum of every entry's balance.
func (s *Snapshot) TotalIssuance() *uint256.Int {
	total := new(uint256.Int)
	for _, e := range s.Entries {
		total.Add(total, e.Balance)
	}
	return total
}

// FileName is the artifact name for the snapshot's block.
func (s *Snapshot) FileName() string {
	return fmt.Sprintf("balances_%d.json", s.Block.Number)
}

// Encode renders the entries as an indented JSON array of
// ["<ss58 address>", <balance>] pairs in snapshot order.
func Encode(s *Snapshot, prefix uint16) ([]byte, error) {
	pairs := make([]json.RawMessage, 0, len(s.Entries))
	for _, e := range s.Entries {
		addr, err := ss58.Encode(e.Account, prefix)
		if err != nil {
			return nil, err
		}
		quoted, err := json.Marshal(addr)
		if err != nil {
			return nil, err
		}
		bal := "0"
		if e.Balance != nil {
			bal = e.Balance.Dec()
		}
		pairs = append(pairs, json.RawMessage(fmt.Sprintf("[%s,%s]", quoted, bal)))
	}
	return json.MarshalIndent(pairs, "", "  ")
}
