package tables

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/etcd/raft/v3/raftpb"
)

// Validate checks that a stored record matches the physical schema of t:
// the key must decode with the table's codec and, for the raft log, the
// value must be a raftpb.Entry whose index equals the key.
func Validate(t Table, key, value []byte) error {
	switch t {
	case Data:
		_, err := MVCCCodec{}.Decode(key)
		return err
	case RaftLog:
		idx, err := Uint64Codec{}.Decode(key)
		if err != nil {
			return err
		}
		var ent raftpb.Entry
		if err := ent.Unmarshal(value); err != nil {
			return fmt.Errorf("raft entry: %w", err)
		}
		if ent.Index != idx {
			return fmt.Errorf("raft entry index %d stored under key %d", ent.Index, idx)
		}
		return nil
	case Txns:
		_, err := StringCodec{}.Decode(key)
		return err
	case Ranges:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownTable, int(t))
	}
}

// RaftLogKey returns the raw key of the raft log entry at index.
func RaftLogKey(index uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, index)
	return buf
}
