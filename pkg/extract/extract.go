package extract

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/subspace/subspace-regenesis-tool/pkg/application"
	"github.com/subspace/subspace-regenesis-tool/pkg/archive"
	"github.com/subspace/subspace-regenesis-tool/pkg/chain"
	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/exclusion"
	"github.com/subspace/subspace-regenesis-tool/pkg/reconcile"
	"github.com/subspace/subspace-regenesis-tool/pkg/snapshot"
	"github.com/subspace/subspace-regenesis-tool/pkg/source"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
)

// Options holds configuration for a snapshot run
type Options struct {
	URL         string
	Block       chain.BlockSelector
	PageSize    int
	Timeout     time.Duration
	Prefix      uint16
	OutputDir   string
	Archive     string
	FromArchive string
	MetricsFile string
}

// Validate checks the options before any I/O happens.
func (o Options) Validate() error {
	if o.FromArchive == "" && o.URL == "" {
		return core.ErrInvalidConfig("a node url is required")
	}
	if o.PageSize < 1 || o.PageSize > source.MaxPageSize {
		return core.ErrInvalidConfigf("page size must be between 1 and %d, got %d", source.MaxPageSize, o.PageSize)
	}
	if o.Timeout < 0 {
		return core.ErrInvalidConfigf("timeout must not be negative, got %s", o.Timeout)
	}
	if o.Prefix > ss58.MaxPrefix {
		return core.ErrInvalidConfigf("ss58 prefix must be at most %d, got %d", ss58.MaxPrefix, o.Prefix)
	}
	if o.Archive != "" && o.FromArchive != "" {
		return core.ErrInvalidConfig("--archive and --from-archive are mutually exclusive")
	}
	return nil
}

// Dialer connects to a node. The returned func releases the connection.
type Dialer func(ctx context.Context, url string, timeout time.Duration) (chain.Node, func(), error)

// DialRPC is the default Dialer.
func DialRPC(ctx context.Context, url string, timeout time.Duration) (chain.Node, func(), error) {
	node, err := chain.Dial(ctx, url, timeout)
	if err != nil {
		return nil, nil, err
	}
	return node, node.Close, nil
}

// Extractor runs the snapshot pipeline: resolve, stream, reconcile, emit.
// An Extractor may run any number of snapshots; its metrics accumulate
// across runs.
type Extractor struct {
	app        *application.Regenesis
	exclusions *exclusion.Set
	metrics    *reconcile.Metrics
	dial       Dialer
}

// New creates an Extractor. The exclusion set is decoded here, before any
// network I/O, and a bad entry fails construction.
func New(app *application.Regenesis, dial Dialer) (*Extractor, error) {
	exclusions, err := exclusion.Default()
	if err != nil {
		return nil, err
	}
	metrics, err := reconcile.NewMetrics(app.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	if dial == nil {
		dial = DialRPC
	}
	return &Extractor{app: app, exclusions: exclusions, metrics: metrics, dial: dial}, nil
}

// Snapshot takes one verified snapshot and writes it out. out receives the
// human-readable summary. It returns the path of the written file.
func (e *Extractor) Snapshot(ctx context.Context, opts Options, out io.Writer) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	metrics := e.metrics

	var (
		block    chain.BlockRef
		stream   source.Stream
		issuance reconcile.IssuanceReader
	)
	if opts.FromArchive != "" {
		r, err := archive.Open(opts.FromArchive)
		if err != nil {
			return "", err
		}
		defer r.Close()

		block = r.Meta().Block()
		if err := checkSelector(opts.Block, block); err != nil {
			return "", err
		}
		e.app.Log.Info("Replaying archive", "path", opts.FromArchive, "block", block.Number, "entries", r.Meta().Entries)
		stream, issuance = r.Stream(), r
	} else {
		node, release, err := e.dial(ctx, opts.URL, opts.Timeout)
		if err != nil {
			return "", err
		}
		defer release()

		block, err = chain.Resolve(ctx, node, opts.Block)
		if err != nil {
			return "", err
		}
		e.app.Log.Info("Pinned snapshot block", "url", opts.URL, "block", block.Number, "hash", block.Hash)

		rpcStream := source.NewRPCStream(node, block.Hash, opts.PageSize)
		fetched := 0
		rpcStream.OnPage = func(n int) {
			fetched += n
			metrics.ObservePage(n)
			e.app.Log.Info("Fetched accounts", "page", n, "total", fetched)
		}
		stream, issuance = rpcStream, chain.NodeIssuance{Node: node}
	}

	var writer *archive.Writer
	if opts.Archive != "" {
		w, err := archive.Create(opts.Archive)
		if err != nil {
			return "", err
		}
		writer = w
		stream = source.Tee(stream, writer.Add)
	}

	res, err := reconcile.New(e.app.Log, e.exclusions, metrics).Run(ctx, block, stream, issuance)
	if err != nil {
		if writer != nil {
			e.discardArchive(writer, opts.Archive)
		}
		return "", err
	}

	if writer != nil {
		if err := writer.Commit(block, res.Accumulated); err != nil {
			e.discardArchive(writer, opts.Archive)
			return "", err
		}
		if err := writer.Close(); err != nil {
			return "", core.Wrap(core.KindArchive, err, "failed to close archive")
		}
		e.app.Log.Info("Archive committed", "path", opts.Archive, "entries", writer.Entries())
	}

	emitter := snapshot.NewEmitter(opts.OutputDir, out)
	emitter.Prefix = opts.Prefix
	path, err := emitter.Emit(res.Snapshot)
	if err != nil {
		return "", err
	}

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, e.app.Registry); err != nil {
			e.app.Log.Warn("Failed to write metrics", "path", opts.MetricsFile, "error", err)
		}
	}
	return path, nil
}

// discardArchive removes an archive that will never be committed.
func (e *Extractor) discardArchive(w *archive.Writer, path string) {
	if err := w.Discard(); err != nil {
		e.app.Log.Warn("Failed to discard archive", "path", path, "error", err)
	}
}

// checkSelector rejects an explicit block choice that disagrees with an archive.
func checkSelector(sel chain.BlockSelector, block chain.BlockRef) error {
	switch {
	case sel.Number != nil && *sel.Number != block.Number:
		return core.ErrInvalidConfigf("archive holds block #%d, not #%d", block.Number, *sel.Number)
	case sel.Number == nil && sel.Hash != nil && *sel.Hash != block.Hash:
		return core.ErrInvalidConfigf("archive holds block %s, not %s", block.Hash.Hex(), sel.Hash.Hex())
	}
	return nil
}
