package cmd

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/subspace/subspace-regenesis-tool/pkg/application"
	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/extract"
	"github.com/subspace/subspace-regenesis-tool/pkg/source"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
)

const defaultURL = "ws://127.0.0.1:9944"

func addSnapshotFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("url", defaultURL, "The websocket url of Subspace node")
	flags.Uint32("block-number", 0, "Specify the block number (takes precedence over --block-hash)")
	flags.String("block-hash", "", "Specify the block hash")
	flags.Int("page-size", source.DefaultPageSize, "Account keys fetched per request")
	flags.Duration("timeout", 0, "Deadline for each node request (0 disables)")
	flags.Uint16("ss58-prefix", ss58.SubstratePrefix, "Network prefix of the addresses written to the snapshot")
	flags.String("output-dir", "", "Directory to write the snapshot to (default is the working directory)")
	flags.String("archive", "", "Record the raw account entries to a new archive at this path")
	flags.String("from-archive", "", "Replay a recorded archive instead of querying a node")
	flags.String("metrics-file", "", "Write run metrics in Prometheus text format to this path")
}

// snapshotOptions reads the snapshot options from flags, environment and config file.
func snapshotOptions(app *application.Regenesis, v *viper.Viper) (extract.Options, error) {
	opts := extract.Options{
		URL:         v.GetString("url"),
		PageSize:    v.GetInt("page-size"),
		Timeout:     v.GetDuration("timeout"),
		Archive:     v.GetString("archive"),
		FromArchive: v.GetString("from-archive"),
		MetricsFile: v.GetString("metrics-file"),
	}

	prefix := v.GetUint("ss58-prefix")
	if prefix > uint(ss58.MaxPrefix) {
		return opts, core.ErrInvalidConfigf("ss58 prefix must be at most %d, got %d", ss58.MaxPrefix, prefix)
	}
	opts.Prefix = uint16(prefix)

	if v.IsSet("block-number") {
		n := v.GetUint32("block-number")
		opts.Block.Number = &n
	}
	hash, err := parseBlockHash(v.GetString("block-hash"))
	if err != nil {
		return opts, err
	}
	opts.Block.Hash = hash

	dir, err := app.GetOutputDir()
	if err != nil {
		return opts, err
	}
	opts.OutputDir = dir
	return opts, nil
}

// parseBlockHash accepts a 0x-prefixed or bare 32-byte hex hash. An empty
// string selects no hash.
func parseBlockHash(s string) (*common.Hash, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil || len(raw) != common.HashLength {
		return nil, core.ErrInvalidConfigf("invalid block hash %q", s)
	}
	hash := common.BytesToHash(raw)
	return &hash, nil
}

func runSnapshot(cmd *cobra.Command, app *application.Regenesis) error {
	opts, err := snapshotOptions(app, app.Config)
	if err != nil {
		return err
	}

	extractor, err := extract.New(app, extract.DialRPC)
	if err != nil {
		return err
	}

	_, err = extractor.Snapshot(cmd.Context(), opts, cmd.OutOrStdout())
	return err
}
