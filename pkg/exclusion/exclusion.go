// Package exclusion holds the accounts that are carried into the new genesis
// by other means and must not appear in the balance snapshot.
package exclusion

import (
	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
)

// Reason explains why an account is excluded.
type Reason string

const (
	ReasonSudo       Reason = "sudo"
	ReasonTestAcct   Reason = "test-account"
	ReasonTokenGrant Reason = "token-grant"
)

// SudoAddress is the root account of the source chain.
const SudoAddress = "5CXTmJEusve5ixyJufqHThmy4qUrrm6FyLCR7QfE4bbyMTNC"

// Public keys of the sr25519 //Alice and //Bob development accounts.
const (
	AliceHex = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	BobHex   = "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"
)

// TokenGrants lists the accounts which receive token grants.
var TokenGrants = []string{
	"5Dns1SVEeDqnbSm2fVUqHJPCvQFXHVsgiw28uMBwmuaoKFYi",
	"5DxtHHQL9JGapWCQARYUAWj4yDcwuhg9Hsk5AjhEzuzonVyE",
	"5EHhw9xuQNdwieUkNoucq2YcateoMVJQdN8EZtmRy3roQkVK",
	"5C5qYYCQBnanGNPGwgmv6jiR2MxNPrGnWYLPFEyV1Xdy2P3x",
	"5GBWVfJ253YWVPHzWDTos1nzYZpa9TemP7FpQT9RnxaFN6Sz",
	"5F9tEPid88uAuGbjpyegwkrGdkXXtaQ9sGSWEnYrfVCUCsen",
	"5DkJFCv3cTBsH5y1eFT94DXMxQ3EmVzYojEA88o56mmTKnMp",
	"5G23o1yxWgVNQJuL4Y9UaCftAFvLuMPCRe7BCARxCohjoHc9",
	"5GhHwuJoK1b7uUg5oi8qUXxWHdfgzv6P5CQSdJ3ffrnPRgKM",
	"5EqBwtqrCV427xCtTsxnb9X2Qay39pYmKNk9wD9Kd62jLS97",
	"5D9pNnGCiZ9UqhBQn5n71WFVaRLvZ7znsMvcZ7PHno4zsiYa",
	"5DXfPcXUcP4BG8LBSkJDrfFNApxjWySR6ARfgh3v27hdYr5S",
	"5CXSdDJgzRTj54f9raHN2Z5BNPSMa2ETjqCTUmpaw3ECmwm4",
	"5DqKxL7bQregQmUfFgzTMfRKY4DSvA1KgHuurZWYmxYSCmjY",
	"5CfixiS93yTwHQbzzfn8P2tMxhKXdTx7Jam9htsD7XtiMFtn",
	"5FZe9YzXeEXe7sK5xLR8yCmbU8bPJDTZpNpNbToKvSJBUiEo",
	"5FZwEgsvZz1vpeH7UsskmNmTpbfXvAcojjgVfShgbRqgC1nx",
}

// Table is the human-readable form of an exclusion set.
type Table struct {
	Sudo         string
	TestAccounts []string // hex public keys
	TokenGrants  []string
}

// DefaultTable returns the hardcoded exclusion table.
func DefaultTable() Table {
	return Table{
		Sudo:         SudoAddress,
		TestAccounts: []string{AliceHex, BobHex},
		TokenGrants:  TokenGrants,
	}
}

// Member is one decoded entry of a Set, in table order.
type Member struct {
	ID     ss58.AccountID
	Reason Reason
}

// Set is an immutable, decoded exclusion set.
type Set struct {
	members []Member
	index   map[ss58.AccountID]Reason
	grants  int
}

// Default decodes DefaultTable.
func Default() (*Set, error) {
	return New(DefaultTable())
}

// New decodes every address of t. Addresses must carry the generic Substrate
// prefix. Any address that fails to decode is a GrantListDecodeFailure; no
// entry is ever dropped.
func New(t Table) (*Set, error) {
	s := &Set{index: make(map[ss58.AccountID]Reason)}

	sudo, err := ss58.DecodeWithPrefix(t.Sudo, ss58.SubstratePrefix)
	if err != nil {
		return nil, core.Wrap(core.KindGrantListDecodeFailure, err, "sudo address %q", t.Sudo)
	}
	s.add(sudo, ReasonSudo)

	for _, h := range t.TestAccounts {
		id, err := ss58.AccountIDFromHex(h)
		if err != nil {
			return nil, core.Wrap(core.KindGrantListDecodeFailure, err, "test account %q", h)
		}
		s.add(id, ReasonTestAcct)
	}

	grants := make(map[ss58.AccountID]struct{}, len(t.TokenGrants))
	for _, addr := range t.TokenGrants {
		id, err := ss58.DecodeWithPrefix(addr, ss58.SubstratePrefix)
		if err != nil {
			return nil, core.Wrap(core.KindGrantListDecodeFailure, err, "token grant %q", addr)
		}
		grants[id] = struct{}{}
		s.add(id, ReasonTokenGrant)
	}
	if len(grants) != len(t.TokenGrants) {
		return nil, core.Errorf(core.KindGrantListDecodeFailure,
			"decoded %d distinct token grants from %d addresses", len(grants), len(t.TokenGrants))
	}
	s.grants = len(grants)

	return s, nil
}

func (s *Set) add(id ss58.AccountID, reason Reason) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = reason
	s.members = append(s.members, Member{ID: id, Reason: reason})
}

// Contains reports whether id is excluded.
func (s *Set) Contains(id ss58.AccountID) bool {
	_, ok := s.index[id]
	return ok
}

// Reason returns why id is excluded.
func (s *Set) Reason(id ss58.AccountID) (Reason, bool) {
	r, ok := s.index[id]
	return r, ok
}

// Members returns the decoded entries in table order.
func (s *Set) Members() []Member {
	out := make([]Member, len(s.members))
	copy(out, s.members)
	return out
}

// Len is the number of distinct excluded accounts.
func (s *Set) Len() int {
	return len(s.members)
}

// GrantCount is the number of distinct decoded token grants.
func (s *Set) GrantCount() int {
	return s.grants
}
