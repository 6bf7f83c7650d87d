// Package pebblestore persists records in a pebble key-value database.
//
// Keys are laid out as 'R' kind 0x00 id, so List is a single bounded scan and
// returns records ordered by ID.
package pebblestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/Sumatoshi-tech/dsmaint/pkg/record"
)

const (
	recordPrefix = 'R'
	kindSep      = 0x00
)

// Store is a record.Store backed by pebble.
type Store struct {
	db *pebble.DB
}

// Options tweak how the database is opened.
type Options struct {
	// FS overrides the filesystem; nil means the OS filesystem.
	FS vfs.FS
}

// Open opens or creates a database at dir.
func Open(dir string, opts Options) (*Store, error) {
	pebbleOpts := &pebble.Options{}
	if opts.FS != nil {
		pebbleOpts.FS = opts.FS
	}

	db, err := pebble.Open(dir, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", dir, err)
	}

	return &Store{db: db}, nil
}

// Put implements record.Store. All records go into one batch.
func (s *Store) Put(_ context.Context, records ...record.Record) error {
	if s.db == nil {
		return record.ErrClosed
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for _, rec := range records {
		validateErr := rec.Validate()
		if validateErr != nil {
			return fmt.Errorf("put %q: %w", rec.ID, validateErr)
		}

		value, marshalErr := json.Marshal(rec)
		if marshalErr != nil {
			return fmt.Errorf("encode %q: %w", rec.ID, marshalErr)
		}

		setErr := batch.Set(recordKey(rec.Kind, rec.ID), value, nil)
		if setErr != nil {
			return fmt.Errorf("batch set %q: %w", rec.ID, setErr)
		}
	}

	commitErr := batch.Commit(pebble.Sync)
	if commitErr != nil {
		return fmt.Errorf("commit batch: %w", commitErr)
	}

	return nil
}

// List implements record.Lister.
func (s *Store) List(ctx context.Context, kind string) ([]record.Record, error) {
	if s.db == nil {
		return nil, record.ErrClosed
	}

	lower := kindPrefix(kind)

	iter, err := s.db.NewIterWithContext(ctx, &pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixEnd(lower),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}

	var out []record.Record

	for valid := iter.First(); valid; valid = iter.Next() {
		var rec record.Record

		decodeErr := json.Unmarshal(iter.Value(), &rec)
		if decodeErr != nil {
			_ = iter.Close()

			return nil, fmt.Errorf("decode %q: %w", iter.Key(), decodeErr)
		}

		out = append(out, rec)
	}

	closeErr := iter.Close()
	if closeErr != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, closeErr)
	}

	return out, nil
}

// Kinds implements record.Store.
func (s *Store) Kinds(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, record.ErrClosed
	}

	iter, err := s.db.NewIterWithContext(ctx, &pebble.IterOptions{
		LowerBound: []byte{recordPrefix},
		UpperBound: []byte{recordPrefix + 1},
	})
	if err != nil {
		return nil, fmt.Errorf("iterate kinds: %w", err)
	}

	var kinds []string

	for valid := iter.First(); valid; {
		kind, ok := kindOf(iter.Key())
		if !ok {
			valid = iter.Next()

			continue
		}

		kinds = append(kinds, kind)

		// Jump past every remaining key of this kind.
		valid = iter.SeekGE(prefixEnd(kindPrefix(kind)))
	}

	closeErr := iter.Close()
	if closeErr != nil {
		return nil, fmt.Errorf("iterate kinds: %w", closeErr)
	}

	return kinds, nil
}

// Close implements record.Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	if err != nil {
		return fmt.Errorf("close pebble: %w", err)
	}

	return nil
}

func kindPrefix(kind string) []byte {
	key := make([]byte, 0, len(kind)+2)
	key = append(key, recordPrefix)
	key = append(key, kind...)

	return append(key, kindSep)
}

func recordKey(kind, id string) []byte {
	return append(kindPrefix(kind), id...)
}

func kindOf(key []byte) (string, bool) {
	if len(key) < 2 || key[0] != recordPrefix {
		return "", false
	}

	end := bytes.IndexByte(key[1:], kindSep)
	if end < 0 {
		return "", false
	}

	return string(key[1 : 1+end]), true
}

// prefixEnd returns the smallest key greater than every key with the prefix.
// Prefixes built by kindPrefix end in 0x00, so incrementing never overflows.
func prefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	end[len(end)-1]++

	return end
}
