// Package tables defines the fixed set of tables a shard node keeps in its
// store, and how their keys are parsed, encoded and validated.
package tables

import (
	"errors"
	"fmt"
)

// ErrUnknownTable is returned by Parse for names outside the table set.
var ErrUnknownTable = errors.New("unknown table")

// Table identifies one logical table.
type Table int

const (
	// Data holds MVCC versions of user keys.
	Data Table = iota
	// RaftLog holds raftpb.Entry records keyed by log index.
	RaftLog
	// Txns holds transaction records keyed by transaction ID.
	Txns
	// Ranges holds shard range descriptors keyed by raw start key.
	Ranges
)

var tableNames = [...]string{
	Data:    "data",
	RaftLog: "raft_log",
	Txns:    "txns",
	Ranges:  "ranges",
}

func (t Table) String() string {
	if t < 0 || int(t) >= len(tableNames) {
		return fmt.Sprintf("Table(%d)", int(t))
	}
	return tableNames[t]
}

// Valid reports whether t is part of the table set.
func (t Table) Valid() bool {
	return t >= 0 && int(t) < len(tableNames)
}

// Parse maps a table name to its Table.
func Parse(name string) (Table, error) {
	for i, n := range tableNames {
		if n == name {
			return Table(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTable, name)
}

// All returns every table in declaration order.
func All() []Table {
	out := make([]Table, len(tableNames))
	for i := range tableNames {
		out[i] = Table(i)
	}
	return out
}
