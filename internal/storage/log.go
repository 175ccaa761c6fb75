package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/myuser/shardsum/internal/storage/wal"
)

var errShortRecord = errors.New("short log record")

// LogEngine is a MemoryEngine persisted through a write-ahead log. Opening
// it replays the whole log; reads are then served from memory.
type LogEngine struct {
	*MemoryEngine
	wal *wal.WAL
}

// LogOptions tunes how the log is opened.
type LogOptions struct {
	// ReadOnly opens an existing log without a write handle. Put then
	// fails with ErrReadOnly.
	ReadOnly bool
}

// OpenLog opens the log at path and replays it. Without ReadOnly a
// missing log is created.
func OpenLog(path string, opts LogOptions) (*LogEngine, error) {
	open := wal.Open
	if opts.ReadOnly {
		open = wal.OpenReadOnly
	}
	w, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}

	mem := NewMemoryEngine()
	err = w.Iterate(func(data []byte) error {
		table, key, value, err := decodeLogRecord(data)
		if err != nil {
			return err
		}
		return mem.Put(table, key, value)
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("replay log %s: %w", path, err)
	}

	return &LogEngine{MemoryEngine: mem, wal: w}, nil
}

// Put appends the record to the log before applying it in memory.
func (e *LogEngine) Put(table string, key, value []byte) error {
	if err := e.wal.Append(encodeLogRecord(table, key, value)); err != nil {
		if errors.Is(err, wal.ErrReadOnly) {
			return ErrReadOnly
		}
		return err
	}
	return e.MemoryEngine.Put(table, key, value)
}

func (e *LogEngine) Close() error {
	e.MemoryEngine.Close()
	return e.wal.Close()
}

// Record format: TableLen(2) | Table | KeyLen(4) | Key | Value
func encodeLogRecord(table string, key, value []byte) []byte {
	buf := make([]byte, 2+len(table)+4+len(key)+len(value))
	binary.BigEndian.PutUint16(buf, uint16(len(table)))
	n := 2 + copy(buf[2:], table)
	binary.BigEndian.PutUint32(buf[n:], uint32(len(key)))
	n += 4
	n += copy(buf[n:], key)
	copy(buf[n:], value)
	return buf
}

func decodeLogRecord(data []byte) (table string, key, value []byte, err error) {
	if len(data) < 2 {
		return "", nil, nil, errShortRecord
	}
	tl := int(binary.BigEndian.Uint16(data))
	data = data[2:]
	if len(data) < tl+4 {
		return "", nil, nil, errShortRecord
	}
	table = string(data[:tl])
	data = data[tl:]

	kl := int(binary.BigEndian.Uint32(data))
	data = data[4:]
	if len(data) < kl {
		return "", nil, nil, errShortRecord
	}
	return table, data[:kl], data[kl:], nil
}
