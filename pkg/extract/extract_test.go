package extract_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/luxfi/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/subspace/subspace-regenesis-tool/pkg/application"
	"github.com/subspace/subspace-regenesis-tool/pkg/chain"
	"github.com/subspace/subspace-regenesis-tool/pkg/chain/chaintest"
	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/exclusion"
	"github.com/subspace/subspace-regenesis-tool/pkg/extract"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
)

func newApp() *application.Regenesis {
	app := application.New()
	app.Setup(log.NewLogger("test"), viper.New())
	return app
}

var _ = Describe("Snapshot extraction", func() {
	var (
		ctx     context.Context
		dir     string
		node    *chaintest.Node
		dialed  int
		dial    extract.Dialer
		opts    extract.Options
		hash    = common.HexToHash("0x2a")
		sudo    ss58.AccountID
		fileFor = func(n uint32) string { return filepath.Join(dir, fmt.Sprintf("balances_%d.json", n)) }
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		dialed = 0

		var err error
		sudo, _, err = ss58.Decode(exclusion.SudoAddress)
		Expect(err).NotTo(HaveOccurred())

		node = chaintest.NewNode()
		node.AddBlock(42, hash)
		node.PutAccount(hash, sudo, 1000, 200)
		for seed := byte(1); seed <= 12; seed++ {
			node.PutAccount(hash, chaintest.AccountID(seed), uint64(seed)*100, 0)
		}
		node.PutIssuance(hash, 1200+7800)

		dial = func(context.Context, string, time.Duration) (chain.Node, func(), error) {
			dialed++
			return node, func() {}, nil
		}
		opts = extract.Options{
			URL:       "ws://127.0.0.1:9944",
			PageSize:  5,
			Prefix:    ss58.SubstratePrefix,
			OutputDir: dir,
		}
	})

	It("should write the verified snapshot for the best block", func() {
		e, err := extract.New(newApp(), dial)
		Expect(err).NotTo(HaveOccurred())

		out := new(bytes.Buffer)
		path, err := e.Snapshot(ctx, opts, out)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(fileFor(42)))
		Expect(path).To(BeAnExistingFile())

		Expect(out.String()).To(ContainSubstring("Total new accounts: 12\n"))
		Expect(out.String()).To(ContainSubstring("Total new issuance: 7800\n"))

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).NotTo(ContainSubstring(exclusion.SudoAddress))
	})

	It("should produce identical output on repeated runs", func() {
		e, err := extract.New(newApp(), dial)
		Expect(err).NotTo(HaveOccurred())
		path, err := e.Snapshot(ctx, opts, new(bytes.Buffer))
		Expect(err).NotTo(HaveOccurred())
		first, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		opts.PageSize = 3
		_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
		Expect(err).NotTo(HaveOccurred())
		second, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(Equal(first))
	})

	It("should not write anything when issuance does not reconcile", func() {
		node.PutIssuance(hash, 1)
		opts.Archive = filepath.Join(dir, "archive")

		e, err := extract.New(newApp(), dial)
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
		Expect(err).To(MatchError(core.ErrIssuanceMismatch))

		Expect(fileFor(42)).NotTo(BeAnExistingFile())
		Expect(opts.Archive).NotTo(BeAnExistingFile())
	})

	It("should fail on an unknown block number", func() {
		n := uint32(9000)
		opts.Block = chain.BlockSelector{Number: &n}

		e, err := extract.New(newApp(), dial)
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
		Expect(err).To(MatchError(core.ErrBlockNotFound))
	})

	It("should reject invalid options before dialing", func() {
		opts.PageSize = 0

		e, err := extract.New(newApp(), dial)
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
		Expect(err).To(MatchError(core.ErrConfig))
		Expect(dialed).To(BeZero())
	})

	Context("Archives", func() {
		var archiveDir string

		BeforeEach(func() {
			archiveDir = filepath.Join(dir, "archive")
			opts.Archive = archiveDir

			e, err := extract.New(newApp(), dial)
			Expect(err).NotTo(HaveOccurred())
			_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
			Expect(err).NotTo(HaveOccurred())
			opts.Archive = ""
		})

		It("should replay an archive into a byte-identical snapshot without a node", func() {
			original, err := os.ReadFile(fileFor(42))
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Remove(fileFor(42))).To(Succeed())

			opts.URL = ""
			opts.FromArchive = archiveDir
			e, err := extract.New(newApp(), dial)
			Expect(err).NotTo(HaveOccurred())
			_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
			Expect(err).NotTo(HaveOccurred())
			Expect(dialed).To(Equal(1))

			replayed, err := os.ReadFile(fileFor(42))
			Expect(err).NotTo(HaveOccurred())
			Expect(replayed).To(Equal(original))
		})

		It("should reject a block selection the archive does not hold", func() {
			n := uint32(41)
			opts.FromArchive = archiveDir
			opts.Block = chain.BlockSelector{Number: &n}

			e, err := extract.New(newApp(), dial)
			Expect(err).NotTo(HaveOccurred())
			_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
			Expect(err).To(MatchError(core.ErrConfig))
		})

		It("should reject recording and replaying at once", func() {
			opts.FromArchive = archiveDir
			opts.Archive = filepath.Join(dir, "other")

			e, err := extract.New(newApp(), dial)
			Expect(err).NotTo(HaveOccurred())
			_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
			Expect(err).To(MatchError(core.ErrConfig))
		})
	})

	It("should dump metrics when asked", func() {
		opts.MetricsFile = filepath.Join(dir, "regenesis.prom")

		e, err := extract.New(newApp(), dial)
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(opts.MetricsFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`regenesis_accounts_total{class="new"} 12`))
		Expect(string(data)).To(ContainSubstring("regenesis_pages_total 3"))
	})

	It("should accumulate metrics across runs of one extractor", func() {
		opts.MetricsFile = filepath.Join(dir, "regenesis.prom")
		app := newApp()

		e, err := extract.New(app, dial)
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Snapshot(ctx, opts, new(bytes.Buffer))
		Expect(err).NotTo(HaveOccurred())

		other, err := extract.New(app, dial)
		Expect(err).NotTo(HaveOccurred())
		_, err = other.Snapshot(ctx, opts, new(bytes.Buffer))
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(opts.MetricsFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`regenesis_accounts_total{class="new"} 36`))
		Expect(string(data)).To(ContainSubstring("regenesis_pages_total 9"))
		Expect(dialed).To(Equal(3))
	})
})
