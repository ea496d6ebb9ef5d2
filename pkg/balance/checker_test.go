package balance_test

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/subspace/subspace-regenesis-tool/pkg/balance"
	"github.com/subspace/subspace-regenesis-tool/pkg/chain/chaintest"
	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/storage"
)

var _ = Describe("Checker", func() {
	var (
		node    *chaintest.Node
		checker *balance.Checker
		hash    = common.HexToHash("0xbeef")
	)

	BeforeEach(func() {
		node = chaintest.NewNode()
		node.AddBlock(3, hash)
		checker = balance.NewChecker(node)
	})

	It("should return the record of an existing account", func() {
		id := chaintest.AccountID(9)
		node.PutAccount(hash, id, 70, 5)

		info, err := checker.GetBalance(context.Background(), id, hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Found).To(BeTrue())
		Expect(info.Account).To(Equal(id))
		Expect(info.Record.Data.Free.Uint64()).To(Equal(uint64(70)))
		Expect(info.Total().Uint64()).To(Equal(uint64(75)))
	})

	It("should report an absent account with a zero total", func() {
		info, err := checker.GetBalance(context.Background(), chaintest.AccountID(1), hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Found).To(BeFalse())
		Expect(info.Total().IsZero()).To(BeTrue())
	})

	It("should reject a malformed record", func() {
		id := chaintest.AccountID(2)
		node.Put(hash, storage.AccountKey(id), []byte{1, 2, 3})

		_, err := checker.GetBalance(context.Background(), id, hash)
		Expect(err).To(MatchError(core.ErrMalformedBalanceRecord))
	})

	It("should read at the requested block only", func() {
		other := common.HexToHash("0xcafe")
		node.AddBlock(4, other)
		id := chaintest.AccountID(5)
		node.PutAccount(other, id, 1, 0)

		info, err := checker.GetBalance(context.Background(), id, hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Found).To(BeFalse())
	})
})
