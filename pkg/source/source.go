// Package source streams the System.Account entries of a pinned block.
package source

import (
	"context"

	"github.com/subspace/subspace-regenesis-tool/pkg/balance"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
	"github.com/subspace/subspace-regenesis-tool/pkg/storage"
)

// RawEntry is one undecoded (key, value) pair from state.
type RawEntry struct {
	Key   []byte
	Value []byte
}

// Stream is a finite, ordered, single-pass sequence of raw entries.
// Next returns ok == false once the stream is exhausted. After an error
// or exhaustion every further call returns the same result.
type Stream interface {
	Next(ctx context.Context) (entry RawEntry, ok bool, err error)
}

// Account is a decoded System.Account entry.
type Account struct {
	ID   ss58.AccountID
	Info *balance.AccountInfo
}

// Decode decodes a raw System.Account entry. Either half failing is fatal
// for the run; there is no best-effort mode.
func Decode(e RawEntry) (Account, error) {
	id, err := storage.AccountIDFromKey(e.Key)
	if err != nil {
		return Account{}, err
	}
	info, err := balance.DecodeAccountInfo(e.Value)
	if err != nil {
		return Account{}, err
	}
	return Account{ID: id, Info: info}, nil
}

// Tee forwards every entry read from s to sink before returning it.
func Tee(s Stream, sink func(RawEntry) error) Stream {
	return &teeStream{src: s, sink: sink}
}

type teeStream struct {
	src  Stream
	sink func(RawEntry) error
	err  error
}

func (t *teeStream) Next(ctx context.Context) (RawEntry, bool, error) {
	if t.err != nil {
		return RawEntry{}, false, t.err
	}
	e, ok, err := t.src.Next(ctx)
	if err != nil || !ok {
		return e, ok, err
	}
	if err := t.sink(e); err != nil {
		t.err = err
		return RawEntry{}, false, err
	}
	return e, true, nil
}
