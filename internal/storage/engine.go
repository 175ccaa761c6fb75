package storage

import (
	"bytes"
	"errors"
)

var (
	// ErrClosed is returned by engines and transactions used after Close/Release.
	ErrClosed = errors.New("storage: closed")
	// ErrOpenCursor wraps failures to position a cursor before the first
	// record is read.
	ErrOpenCursor = errors.New("storage: open cursor")
	// ErrReadOnly is returned by Put on an engine opened read-only.
	ErrReadOnly = errors.New("storage: read-only")
)

// Engine is an ordered key-value store split into named tables.
// Keys inside a table are raw bytes compared lexicographically.
type Engine interface {
	Reader

	// Put writes a key-value pair into table.
	Put(table string, key, value []byte) error

	// Close closes the storage engine.
	Close() error
}

// Reader opens read-only transactions.
type Reader interface {
	// BeginRead opens a read-only, snapshot-isolated transaction.
	// Engines do not apply any long-read-transaction policy to it.
	BeginRead() (ReadTxn, error)
}

// ReadTxn is a consistent read view of the store. It must be released on
// every exit path.
type ReadTxn interface {
	// Walk iterates the records of table inside r in ascending key order.
	// handler is called for each key-value pair; if it returns false,
	// iteration stops. The slices passed to handler are only valid for
	// the duration of the call.
	Walk(table string, r KeyRange, handler func(key, value []byte) bool) error

	// Release frees the snapshot.
	Release()
}

// RangeKind tells which ends of a KeyRange are bounded.
type RangeKind int

const (
	Unbounded RangeKind = iota
	FromStart
	ToEnd
	Bounded
)

func (k RangeKind) String() string {
	switch k {
	case Unbounded:
		return "unbounded"
	case FromStart:
		return "from-start"
	case ToEnd:
		return "to-end"
	case Bounded:
		return "bounded"
	default:
		return "unknown"
	}
}

// KeyRange is an interval over raw table keys. Present ends are inclusive.
type KeyRange struct {
	Kind  RangeKind
	Start []byte
	End   []byte
}

// NewKeyRange builds a KeyRange from optional raw bounds; nil means absent.
// No ordering check is done: a range with start > end simply matches nothing.
func NewKeyRange(start, end []byte) KeyRange {
	switch {
	case start != nil && end != nil:
		return KeyRange{Kind: Bounded, Start: start, End: end}
	case start != nil:
		return KeyRange{Kind: FromStart, Start: start}
	case end != nil:
		return KeyRange{Kind: ToEnd, End: end}
	default:
		return KeyRange{Kind: Unbounded}
	}
}

// Contains reports whether key falls inside the range.
func (r KeyRange) Contains(key []byte) bool {
	if r.hasStart() && bytes.Compare(key, r.Start) < 0 {
		return false
	}
	if r.hasEnd() && bytes.Compare(key, r.End) > 0 {
		return false
	}
	return true
}

// Empty reports whether the range can never match a key.
func (r KeyRange) Empty() bool {
	return r.Kind == Bounded && bytes.Compare(r.Start, r.End) > 0
}

func (r KeyRange) hasStart() bool { return r.Kind == FromStart || r.Kind == Bounded }
func (r KeyRange) hasEnd() bool   { return r.Kind == ToEnd || r.Kind == Bounded }

// Physical layout: table name, a zero separator, then the raw key.
// Table names never contain 0x00 so prefixes do not overlap.
const tableSep = 0x00

func tablePrefix(table string) []byte {
	p := make([]byte, len(table)+1)
	copy(p, table)
	p[len(table)] = tableSep
	return p
}

// physicalKey joins the table prefix and the raw key.
func physicalKey(table string, key []byte) []byte {
	buf := make([]byte, 0, len(table)+1+len(key))
	buf = append(buf, table...)
	buf = append(buf, tableSep)
	return append(buf, key...)
}

// physicalBounds maps r to a half-open [lower, upper) interval over
// physical keys of table. ok is false when the range is empty.
func physicalBounds(table string, r KeyRange) (lower, upper []byte, ok bool) {
	if r.Empty() {
		return nil, nil, false
	}
	prefix := tablePrefix(table)

	lower = prefix
	if r.hasStart() {
		lower = physicalKey(table, r.Start)
	}

	if r.hasEnd() {
		// Immediate successor of End keeps End itself inside the interval.
		upper = append(physicalKey(table, r.End), 0x00)
	} else {
		upper = prefixEnd(prefix)
	}
	return lower, upper, true
}

// prefixEnd returns the smallest key greater than every key with prefix p.
func prefixEnd(p []byte) []byte {
	end := make([]byte, len(p))
	copy(end, p)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
