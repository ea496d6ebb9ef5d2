package snapshot

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
)

// Emitter writes verified snapshots to Dir.
type Emitter struct {
	Dir    string
	Prefix uint16
	Out    io.Writer
}

// NewEmitter returns an emitter writing into dir and reporting to out.
func NewEmitter(dir string, out io.Writer) *Emitter {
	return &Emitter{Dir: dir, Prefix: ss58.SubstratePrefix, Out: out}
}

// Emit prints the summary and writes the snapshot file. The file is encoded
// in memory and atomically replaces any previous file of the same name.
func (e *Emitter) Emit(s *Snapshot) (string, error) {
	data, err := Encode(s, e.Prefix)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	e.PrintSummary(s)

	path := filepath.Join(e.Dir, s.FileName())
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot to %s: %w", path, err)
	}

	fmt.Fprintf(e.Out, "Snapshot has been successfully written to %s\n", path)
	return path, nil
}

// PrintSummary reports the block and the new-account totals.
func (e *Emitter) PrintSummary(s *Snapshot) {
	fmt.Fprintf(e.Out, "State of balances at block #%d (%s)\n", s.Block.Number, s.Block.Hash.Hex())
	fmt.Fprintf(e.Out, "Total new accounts: %d\n", len(s.Entries))
	fmt.Fprintf(e.Out, "Total new issuance: %s\n", s.TotalIssuance().Dec())
}
