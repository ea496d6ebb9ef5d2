package chaintest

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/subspace/subspace-regenesis-tool/pkg/balance"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
	"github.com/subspace/subspace-regenesis-tool/pkg/storage"
)

// PutAccount stores a System.Account entry for id at block at.
func (n *Node) PutAccount(at common.Hash, id ss58.AccountID, free, reserved uint64) {
	info := &balance.AccountInfo{
		Providers: 1,
		Data: balance.AccountData{
			Free:     uint256.NewInt(free),
			Reserved: uint256.NewInt(reserved),
		},
	}
	n.Put(at, storage.AccountKey(id), balance.EncodeAccountInfo(info))
}

// PutIssuance stores Balances.TotalIssuance at block at.
func (n *Node) PutIssuance(at common.Hash, issuance uint64) {
	n.Put(at, storage.TotalIssuanceKey, balance.EncodeU128(uint256.NewInt(issuance)))
}

// AccountID returns a deterministic test account id derived from seed.
func AccountID(seed byte) ss58.AccountID {
	var id ss58.AccountID
	for i := range id {
		id[i] = seed ^ byte(i)
	}
	return id
}
