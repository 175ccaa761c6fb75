package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kv struct{ k, v string }

func engines(t *testing.T) map[string]Engine {
	t.Helper()
	dir := t.TempDir()

	peb, err := OpenPebble(filepath.Join(dir, "pebble"), PebbleOptions{})
	require.NoError(t, err)
	lg, err := OpenLog(filepath.Join(dir, "store.log"), LogOptions{})
	require.NoError(t, err)

	all := map[string]Engine{
		"memory": NewMemoryEngine(),
		"pebble": peb,
		"log":    lg,
	}
	t.Cleanup(func() {
		for _, e := range all {
			e.Close()
		}
	})
	return all
}

func walkAll(t *testing.T, e Engine, table string, r KeyRange) []kv {
	t.Helper()
	txn, err := e.BeginRead()
	require.NoError(t, err)
	defer txn.Release()

	var out []kv
	err = txn.Walk(table, r, func(k, v []byte) bool {
		out = append(out, kv{string(k), string(v)})
		return true
	})
	require.NoError(t, err)
	return out
}

func TestEngineWalkRanges(t *testing.T) {
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"b", "a", "d", "c"} {
				require.NoError(t, e.Put("t1", []byte(k), []byte("v"+k)))
			}
			// Neighbouring table must never leak into t1 walks.
			require.NoError(t, e.Put("t0", []byte("z"), []byte("other")))
			require.NoError(t, e.Put("t2", []byte("a"), []byte("other")))

			all := walkAll(t, e, "t1", NewKeyRange(nil, nil))
			assert.Equal(t, []kv{{"a", "va"}, {"b", "vb"}, {"c", "vc"}, {"d", "vd"}}, all)

			assert.Equal(t, []kv{{"b", "vb"}, {"c", "vc"}},
				walkAll(t, e, "t1", NewKeyRange([]byte("b"), []byte("c"))))
			assert.Equal(t, []kv{{"c", "vc"}, {"d", "vd"}},
				walkAll(t, e, "t1", NewKeyRange([]byte("c"), nil)))
			assert.Equal(t, []kv{{"a", "va"}, {"b", "vb"}},
				walkAll(t, e, "t1", NewKeyRange(nil, []byte("b"))))

			// Bounds between stored keys.
			assert.Equal(t, []kv{{"b", "vb"}},
				walkAll(t, e, "t1", NewKeyRange([]byte("aa"), []byte("bb"))))

			// start > end is empty, not an error.
			assert.Empty(t, walkAll(t, e, "t1", NewKeyRange([]byte("d"), []byte("a"))))
			assert.Empty(t, walkAll(t, e, "missing", NewKeyRange(nil, nil)))
		})
	}
}

func TestEngineWalkStopsEarly(t *testing.T) {
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 10; i++ {
				require.NoError(t, e.Put("t", []byte(fmt.Sprintf("k%02d", i)), nil))
			}
			txn, err := e.BeginRead()
			require.NoError(t, err)
			defer txn.Release()

			n := 0
			require.NoError(t, txn.Walk("t", NewKeyRange(nil, nil), func(k, v []byte) bool {
				n++
				return n < 3
			}))
			assert.Equal(t, 3, n)
		})
	}
}

func TestEngineSnapshotIsolation(t *testing.T) {
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, e.Put("t", []byte("a"), []byte("1")))

			txn, err := e.BeginRead()
			require.NoError(t, err)
			defer txn.Release()

			require.NoError(t, e.Put("t", []byte("a"), []byte("2")))
			require.NoError(t, e.Put("t", []byte("b"), []byte("2")))

			var got []kv
			require.NoError(t, txn.Walk("t", NewKeyRange(nil, nil), func(k, v []byte) bool {
				got = append(got, kv{string(k), string(v)})
				return true
			}))
			assert.Equal(t, []kv{{"a", "1"}}, got)
		})
	}
}

func TestLogEngineReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.log")

	e, err := OpenLog(path, LogOptions{})
	require.NoError(t, err)
	require.NoError(t, e.Put("raft_log", []byte{0, 1}, []byte("one")))
	require.NoError(t, e.Put("txns", []byte("txn-1"), []byte{}))
	require.NoError(t, e.Put("raft_log", []byte{0, 1}, []byte("uno")))
	require.NoError(t, e.Close())

	e2, err := OpenLog(path, LogOptions{})
	require.NoError(t, err)
	defer e2.Close()

	assert.Equal(t, 2, e2.Len())
	v, err := e2.Get("raft_log", []byte{0, 1})
	require.NoError(t, err)
	assert.Equal(t, "uno", string(v))
}

func TestLogRecordCodec(t *testing.T) {
	buf := encodeLogRecord("data", []byte("k"), []byte("value"))
	table, k, v, err := decodeLogRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, "data", table)
	assert.Equal(t, "k", string(k))
	assert.Equal(t, "value", string(v))

	_, _, _, err = decodeLogRecord(buf[:5])
	assert.ErrorIs(t, err, errShortRecord)
}

func TestMemoryEngineClosed(t *testing.T) {
	e := NewMemoryEngine()
	require.NoError(t, e.Close())

	_, err := e.BeginRead()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, e.Put("t", []byte("a"), nil), ErrClosed)
}

func TestReleasedTxn(t *testing.T) {
	e := NewMemoryEngine()
	txn, err := e.BeginRead()
	require.NoError(t, err)
	txn.Release()

	err = txn.Walk("t", NewKeyRange(nil, nil), func(k, v []byte) bool { return true })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewKeyRange(t *testing.T) {
	assert.Equal(t, Unbounded, NewKeyRange(nil, nil).Kind)
	assert.Equal(t, FromStart, NewKeyRange([]byte{1}, nil).Kind)
	assert.Equal(t, ToEnd, NewKeyRange(nil, []byte{1}).Kind)
	assert.Equal(t, Bounded, NewKeyRange([]byte{1}, []byte{2}).Kind)

	// An empty but non-nil bound is still a bound.
	assert.Equal(t, FromStart, NewKeyRange([]byte{}, nil).Kind)

	r := NewKeyRange([]byte{2}, []byte{4})
	assert.True(t, r.Contains([]byte{2}))
	assert.True(t, r.Contains([]byte{4}))
	assert.False(t, r.Contains([]byte{1}))
	assert.False(t, r.Contains([]byte{4, 0}))
	assert.True(t, NewKeyRange([]byte{5}, []byte{4}).Empty())
}

func TestPhysicalBounds(t *testing.T) {
	lower, upper, ok := physicalBounds("t", NewKeyRange(nil, nil))
	require.True(t, ok)
	assert.Equal(t, []byte("t\x00"), lower)
	assert.Equal(t, []byte("t\x01"), upper)

	lower, upper, ok = physicalBounds("t", NewKeyRange([]byte("a"), []byte("c")))
	require.True(t, ok)
	assert.Equal(t, []byte("t\x00a"), lower)
	assert.Equal(t, []byte("t\x00c\x00"), upper)

	_, _, ok = physicalBounds("t", NewKeyRange([]byte("c"), []byte("a")))
	assert.False(t, ok)

	assert.Nil(t, prefixEnd([]byte{0xFF, 0xFF}))
	assert.Equal(t, []byte{0x01}, prefixEnd([]byte{0x00, 0xFF}))
}

func TestOpenReadOnlyDoesNotCreate(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(KindLog, filepath.Join(dir, "missing.log"), true)
	assert.Error(t, err)
	_, err = Open(KindPebble, filepath.Join(dir, "missing-db"), true)
	assert.Error(t, err)
	_, err = Open("rocksdb", dir, true)
	assert.Error(t, err)

	e, err := Open(KindLog, filepath.Join(dir, "new.log"), false)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	e, err = Open(KindLog, filepath.Join(dir, "new.log"), true)
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestOpenLogReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.log")

	e, err := OpenLog(path, LogOptions{})
	require.NoError(t, err)
	require.NoError(t, e.Put("txns", []byte("txn-1"), []byte("committed")))
	require.NoError(t, e.Close())
	// A log the verifier may only read.
	require.NoError(t, os.Chmod(path, 0444))

	ro, err := Open(KindLog, path, true)
	require.NoError(t, err)
	defer ro.Close()

	assert.Equal(t, []kv{{"txn-1", "committed"}}, walkAll(t, ro, "txns", NewKeyRange(nil, nil)))
	assert.ErrorIs(t, ro.Put("txns", []byte("txn-2"), nil), ErrReadOnly)
	assert.Equal(t, []kv{{"txn-1", "committed"}}, walkAll(t, ro, "txns", NewKeyRange(nil, nil)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0444), info.Mode().Perm())
}
