package storage

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleEngine implements Engine on a pebble database directory.
type PebbleEngine struct {
	db *pebble.DB
}

// PebbleOptions tunes how the database is opened.
type PebbleOptions struct {
	// ReadOnly opens the database without write access. The checksum tool
	// always opens read-only.
	ReadOnly bool
}

// OpenPebble opens or creates a pebble database in dir.
func OpenPebble(dir string, opts PebbleOptions) (*PebbleEngine, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", dir, err)
	}
	return &PebbleEngine{db: db}, nil
}

func (e *PebbleEngine) Put(table string, key, value []byte) error {
	return e.db.Set(physicalKey(table, key), value, pebble.Sync)
}

// Get returns the value stored under key, or nil if absent.
func (e *PebbleEngine) Get(table string, key []byte) ([]byte, error) {
	val, closer, err := e.db.Get(physicalKey(table, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// BeginRead takes a pebble snapshot. Snapshots have no lifetime limit.
func (e *PebbleEngine) BeginRead() (ReadTxn, error) {
	return &pebbleTxn{snap: e.db.NewSnapshot()}, nil
}

func (e *PebbleEngine) Close() error {
	return e.db.Close()
}

type pebbleTxn struct {
	snap *pebble.Snapshot
}

func (t *pebbleTxn) Walk(table string, r KeyRange, handler func(key, value []byte) bool) error {
	if t.snap == nil {
		return ErrClosed
	}
	lower, upper, ok := physicalBounds(table, r)
	if !ok {
		return nil
	}

	iter, err := t.snap.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return fmt.Errorf("%w on %s: %v", ErrOpenCursor, table, err)
	}
	defer iter.Close()

	skip := len(table) + 1
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		val, err := iter.ValueAndErr()
		if err != nil {
			return fmt.Errorf("read value of %x: %w", key[skip:], err)
		}
		if !handler(key[skip:], val) {
			break
		}
	}
	return iter.Error()
}

func (t *pebbleTxn) Release() {
	if t.snap == nil {
		return
	}
	_ = t.snap.Close()
	t.snap = nil
}
