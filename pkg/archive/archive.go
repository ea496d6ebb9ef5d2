// Package archive stores the raw account entries of a verified snapshot run
// in a pebble database so the run can be replayed without a node.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/subspace/subspace-regenesis-tool/pkg/chain"
	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/source"
)

var (
	metaKey     = []byte("m/meta")
	entryPrefix = []byte("e/")
	entryEnd    = []byte("e0") // '/' + 1
)

// flushSize bounds the in-memory batch while entries are being added.
const flushSize = 32 << 20

// Meta describes the block an archive was taken at.
type Meta struct {
	Number   uint32      `json:"number"`
	Hash     common.Hash `json:"hash"`
	Issuance string      `json:"issuance"`
	Entries  uint64      `json:"entries"`
}

// Block returns the archived block reference.
func (m Meta) Block() chain.BlockRef {
	return chain.BlockRef{Number: m.Number, Hash: m.Hash}
}

func entryKey(key []byte) []byte {
	out := make([]byte, 0, len(entryPrefix)+len(key))
	out = append(out, entryPrefix...)
	return append(out, key...)
}

// Writer records raw entries. Nothing is visible to a Reader until Commit
// stores the metadata.
type Writer struct {
	dir     string
	db      *pebble.DB
	batch   *pebble.Batch
	entries uint64
}

// Create opens a new archive in dir. An existing database in dir is an error.
func Create(dir string) (*Writer, error) {
	db, err := pebble.Open(dir, &pebble.Options{ErrorIfExists: true})
	if err != nil {
		return nil, core.Wrap(core.KindArchive, err, "failed to create archive at %s", dir)
	}
	return &Writer{dir: dir, db: db, batch: db.NewBatch()}, nil
}

// Add appends one raw entry.
func (w *Writer) Add(e source.RawEntry) error {
	if err := w.batch.Set(entryKey(e.Key), e.Value, nil); err != nil {
		return core.Wrap(core.KindArchive, err, "failed to stage entry 0x%x", e.Key)
	}
	w.entries++

	if w.batch.Len() >= flushSize {
		if err := w.batch.Commit(pebble.NoSync); err != nil {
			return core.Wrap(core.KindArchive, err, "failed to flush entries")
		}
		w.batch.Close()
		w.batch = w.db.NewBatch()
	}
	return nil
}

// Entries is the number of entries added so far.
func (w *Writer) Entries() uint64 {
	return w.entries
}

// Commit seals the archive with the verified block and issuance.
func (w *Writer) Commit(block chain.BlockRef, issuance *uint256.Int) error {
	if issuance == nil {
		return core.Errorf(core.KindArchive, "no issuance to commit for block #%d", block.Number)
	}
	meta, err := json.Marshal(Meta{
		Number:   block.Number,
		Hash:     block.Hash,
		Issuance: issuance.Dec(),
		Entries:  w.entries,
	})
	if err != nil {
		return core.Wrap(core.KindArchive, err, "failed to encode metadata")
	}
	if err := w.batch.Set(metaKey, meta, nil); err != nil {
		return core.Wrap(core.KindArchive, err, "failed to stage metadata")
	}
	if err := w.batch.Commit(pebble.Sync); err != nil {
		return core.Wrap(core.KindArchive, err, "failed to commit archive")
	}
	return nil
}

// Close releases the database. An uncommitted archive stays unreadable.
func (w *Writer) Close() error {
	w.batch.Close()
	return w.db.Close()
}

// Discard closes the writer and removes everything it wrote.
func (w *Writer) Discard() error {
	if err := w.Close(); err != nil {
		return err
	}
	return os.RemoveAll(w.dir)
}

// Reader replays a committed archive.
type Reader struct {
	db       *pebble.DB
	meta     Meta
	issuance *uint256.Int
	streams  []*stream
}

// Open opens a committed archive read-only.
func Open(dir string) (*Reader, error) {
	db, err := pebble.Open(dir, &pebble.Options{ReadOnly: true, ErrorIfNotExists: true})
	if err != nil {
		return nil, core.Wrap(core.KindArchive, err, "failed to open archive at %s", dir)
	}

	raw, closer, err := db.Get(metaKey)
	if err != nil {
		db.Close()
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, core.Errorf(core.KindArchive, "archive at %s was never committed", dir)
		}
		return nil, core.Wrap(core.KindArchive, err, "failed to read archive metadata")
	}
	var meta Meta
	err = json.Unmarshal(raw, &meta)
	closer.Close()
	if err != nil {
		db.Close()
		return nil, core.Wrap(core.KindArchive, err, "failed to decode archive metadata")
	}

	issuance, err := uint256.FromDecimal(meta.Issuance)
	if err != nil {
		db.Close()
		return nil, core.Wrap(core.KindArchive, err, "invalid archived issuance %q", meta.Issuance)
	}
	return &Reader{db: db, meta: meta, issuance: issuance}, nil
}

// Meta returns the archive metadata.
func (r *Reader) Meta() Meta {
	return r.meta
}

// TotalIssuance returns the issuance recorded for the archived block.
func (r *Reader) TotalIssuance(_ context.Context, at common.Hash) (*uint256.Int, error) {
	if at != r.meta.Hash {
		return nil, core.Errorf(core.KindArchive, "archive holds block %s, not %s", r.meta.Hash.Hex(), at.Hex())
	}
	return new(uint256.Int).Set(r.issuance), nil
}

// Stream returns a fresh single-pass stream over the archived entries.
func (r *Reader) Stream() source.Stream {
	s := &stream{db: r.db, want: r.meta.Entries}
	r.streams = append(r.streams, s)
	return s
}

// Close releases the database and any stream left mid-iteration.
func (r *Reader) Close() error {
	for _, s := range r.streams {
		if s.iter != nil {
			s.iter.Close()
			s.iter = nil
		}
	}
	return r.db.Close()
}

type stream struct {
	db   *pebble.DB
	iter *pebble.Iterator
	want uint64
	seen uint64
	done bool
	err  error
}

func (s *stream) Next(_ context.Context) (source.RawEntry, bool, error) {
	if s.err != nil {
		return source.RawEntry{}, false, s.err
	}
	if s.done {
		return source.RawEntry{}, false, nil
	}

	if s.iter == nil {
		iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: entryPrefix, UpperBound: entryEnd})
		if err != nil {
			return s.fail(core.Wrap(core.KindArchive, err, "failed to iterate archive"))
		}
		s.iter = iter
		s.iter.First()
	} else {
		s.iter.Next()
	}

	if !s.iter.Valid() {
		err := s.iter.Error()
		s.iter.Close()
		s.iter = nil
		if err != nil {
			return s.fail(core.Wrap(core.KindArchive, err, "archive iteration failed"))
		}
		if s.seen != s.want {
			return s.fail(core.Errorf(core.KindArchive, "archive holds %d entries, metadata says %d", s.seen, s.want))
		}
		s.done = true
		return source.RawEntry{}, false, nil
	}

	s.seen++
	e := source.RawEntry{
		Key:   bytes.Clone(s.iter.Key()[len(entryPrefix):]),
		Value: bytes.Clone(s.iter.Value()),
	}
	return e, true, nil
}

func (s *stream) fail(err error) (source.RawEntry, bool, error) {
	s.err = err
	return source.RawEntry{}, false, err
}
