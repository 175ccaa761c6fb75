// Package checksum folds an ordered range of one table into a single
// deterministic 64-bit checksum.
//
// A walk opens one read transaction, visits the records of the range in
// key order and feeds each record's raw key and then raw value bytes into
// a seeded hash. The result depends on the bytes and on their order, so
// two stores agree on a checksum only if they hold the same records.
package checksum

import (
	"errors"
	"fmt"
	"time"

	"github.com/myuser/shardsum/internal/metrics"
	"github.com/myuser/shardsum/internal/storage"
	"github.com/myuser/shardsum/internal/tables"
)

// Request describes one checksum walk.
type Request struct {
	Table tables.Table

	// StartKey and EndKey are optional inclusive bounds in the table's
	// textual key form. Nil means unbounded on that side.
	StartKey *string
	EndKey   *string

	// Limit stops the walk after that many records. Zero means no limit.
	Limit int

	Algorithm Algorithm
	// Seed defaults to DefaultSeed when zero.
	Seed Seed

	// Progress is told the record count every ProgressEvery records,
	// starting with the first record. Nil disables progress reports.
	Progress      Progress
	ProgressEvery int

	// VerifyRecords validates each record against the table schema and
	// fails the walk on the first mismatch.
	VerifyRecords bool
}

// Compute runs the walk described by req against r.
//
// Compute never writes. The walk runs to the end of the range or to
// req.Limit; on any error no partial result is returned.
func Compute(r storage.Reader, req Request) (*Result, error) {
	switch req.Table {
	case tables.Data:
		return compute[tables.MVCCKey](r, req, tables.MVCCCodec{})
	case tables.RaftLog:
		return compute[uint64](r, req, tables.Uint64Codec{})
	case tables.Txns:
		return compute[string](r, req, tables.StringCodec{})
	case tables.Ranges:
		return compute[tables.HexBytes](r, req, tables.BytesCodec{})
	default:
		return nil, fmt.Errorf("%w: %s", tables.ErrUnknownTable, req.Table)
	}
}

// ResolveRange decodes the optional textual bounds with codec and builds
// the key range to walk.
func ResolveRange[K any](table tables.Table, codec tables.KeyCodec[K], start, end *string) (storage.KeyRange, error) {
	var lo, hi []byte
	if start != nil {
		raw, err := tables.ParseKey(codec, *start)
		if err != nil {
			return storage.KeyRange{}, &RangeDecodeError{Table: table.String(), Input: *start, Err: err}
		}
		lo = raw
	}
	if end != nil {
		raw, err := tables.ParseKey(codec, *end)
		if err != nil {
			return storage.KeyRange{}, &RangeDecodeError{Table: table.String(), Input: *end, Err: err}
		}
		hi = raw
	}
	return storage.NewKeyRange(lo, hi), nil
}

func compute[K any](r storage.Reader, req Request, codec tables.KeyCodec[K]) (*Result, error) {
	name := req.Table.String()

	keyRange, err := ResolveRange(req.Table, codec, req.StartKey, req.EndKey)
	if err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == (Seed{}) {
		seed = DefaultSeed
	}
	alg := req.Algorithm
	if alg == "" {
		alg = SipHash
	}
	progress := req.Progress
	if progress == nil {
		progress = noProgress{}
	}
	every := req.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}

	txn, err := r.BeginRead()
	if err != nil {
		metrics.Inc(metrics.WalkErrors)
		return nil, &TransactionError{Table: name, Op: "begin read", Err: err}
	}
	defer txn.Release()

	start := time.Now()
	acc, err := NewAccumulator(alg, seed)
	if err != nil {
		return nil, err
	}

	var (
		records  int
		hashed   int64
		firstKey []byte
		endKey   []byte
		failure  error
	)
	err = txn.Walk(name, keyRange, func(key, value []byte) bool {
		index := records
		if index%every == 0 {
			progress.Hashed(name, index)
		}
		if req.VerifyRecords {
			if err := tables.Validate(req.Table, key, value); err != nil {
				failure = &RecordDecodeError{Table: name, Index: index, Key: clone(key), Err: err}
				return false
			}
		}

		acc.Record(key, value)
		hashed += int64(len(key) + len(value))

		if index == 0 {
			firstKey = clone(key)
		}
		// Reuse the buffer: only the last key survives the loop.
		endKey = append(endKey[:0], key...)

		records = index + 1
		return req.Limit <= 0 || records < req.Limit
	})
	if failure == nil && err != nil {
		if errors.Is(err, storage.ErrOpenCursor) || errors.Is(err, storage.ErrClosed) {
			failure = &TransactionError{Table: name, Op: "open cursor", Err: err}
		} else {
			failure = &RecordDecodeError{Table: name, Index: records, Err: err}
		}
	}
	if failure != nil {
		metrics.Inc(metrics.WalkErrors)
		return nil, failure
	}

	res := &Result{
		Table:     req.Table,
		Algorithm: alg,
		Checksum:  acc.Sum64(),
		Elapsed:   time.Since(start),
		Records:   records,
	}
	if records > 0 {
		res.FirstKey = firstKey
		res.EndKey = endKey
		if res.EndKey == nil {
			res.EndKey = []byte{}
		}
		res.FirstKeyJSON = formatKey(codec, firstKey)
		res.EndKeyJSON = formatKey(codec, endKey)
	}

	metrics.Inc(metrics.Walks)
	metrics.Add(metrics.Records, int64(records))
	metrics.Add(metrics.Bytes, hashed)
	return res, nil
}

// formatKey renders a report key as JSON, falling back to raw hex when the
// codec cannot decode it. Report fields never fail a finished walk.
func formatKey[K any](codec tables.KeyCodec[K], raw []byte) string {
	text, err := tables.FormatKey(codec, raw)
	if err != nil {
		return fmt.Sprintf("0x%x", raw)
	}
	return text
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
