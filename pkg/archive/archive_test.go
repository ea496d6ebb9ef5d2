package archive_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/subspace/subspace-regenesis-tool/pkg/archive"
	"github.com/subspace/subspace-regenesis-tool/pkg/chain"
	"github.com/subspace/subspace-regenesis-tool/pkg/chain/chaintest"
	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/source"
)

func drain(ctx context.Context, s source.Stream) []source.RawEntry {
	var out []source.RawEntry
	for {
		e, ok, err := s.Next(ctx)
		Expect(err).NotTo(HaveOccurred())
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

var _ = Describe("Raw entry archive", func() {
	var (
		ctx   context.Context
		dir   string
		block = chain.BlockRef{Number: 77, Hash: common.HexToHash("0x77")}
		node  *chaintest.Node
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = filepath.Join(GinkgoT().TempDir(), "archive")
		node = chaintest.NewNode()
		node.AddBlock(block.Number, block.Hash)
		for seed := byte(1); seed <= 9; seed++ {
			node.PutAccount(block.Hash, chaintest.AccountID(seed), uint64(seed)*3, uint64(seed%2))
		}
	})

	record := func() []source.RawEntry {
		w, err := archive.Create(dir)
		Expect(err).NotTo(HaveOccurred())

		entries := drain(ctx, source.Tee(source.NewRPCStream(node, block.Hash, 4), w.Add))
		Expect(w.Entries()).To(Equal(uint64(len(entries))))
		Expect(w.Commit(block, uint256.NewInt(140))).To(Succeed())
		Expect(w.Close()).To(Succeed())
		return entries
	}

	It("should replay exactly the recorded entries in order", func() {
		recorded := record()

		r, err := archive.Open(dir)
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()

		Expect(r.Meta().Block()).To(Equal(block))
		Expect(r.Meta().Entries).To(Equal(uint64(9)))
		Expect(drain(ctx, r.Stream())).To(Equal(recorded))
	})

	It("should serve the archived issuance only for the archived block", func() {
		record()

		r, err := archive.Open(dir)
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()

		v, err := r.TotalIssuance(ctx, block.Hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Uint64()).To(Equal(uint64(140)))

		_, err = r.TotalIssuance(ctx, common.HexToHash("0x78"))
		Expect(err).To(MatchError(core.ErrArchive))
	})

	It("should refuse to overwrite an existing archive", func() {
		record()

		_, err := archive.Create(dir)
		Expect(err).To(MatchError(core.ErrArchive))
	})

	It("should refuse an archive that was never committed", func() {
		w, err := archive.Create(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Add(source.RawEntry{Key: []byte{1}, Value: []byte{2}})).To(Succeed())
		Expect(w.Close()).To(Succeed())

		_, err = archive.Open(dir)
		Expect(err).To(MatchError(core.ErrArchive))
	})

	It("should remove a discarded archive", func() {
		w, err := archive.Create(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Discard()).To(Succeed())

		_, err = os.Stat(dir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("should discard cleanly after a failed commit", func() {
		w, err := archive.Create(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Add(source.RawEntry{Key: []byte{1}, Value: []byte{2}})).To(Succeed())

		Expect(w.Commit(block, nil)).To(MatchError(core.ErrArchive))
		Expect(w.Discard()).To(Succeed())

		_, err = os.Stat(dir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("should fail to open a missing archive", func() {
		_, err := archive.Open(filepath.Join(dir, "nope"))
		Expect(core.KindOf(err)).To(Equal(core.KindArchive))
	})
})
