package tables

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/raft/v3/raftpb"
)

func TestParseTable(t *testing.T) {
	for _, tbl := range All() {
		got, err := Parse(tbl.String())
		require.NoError(t, err)
		assert.Equal(t, tbl, got)
	}

	_, err := Parse("blocks")
	assert.ErrorIs(t, err, ErrUnknownTable)
	assert.False(t, Table(99).Valid())
	assert.Equal(t, "Table(99)", Table(99).String())
}

func TestMaybeJSON(t *testing.T) {
	assert.Equal(t, `42`, string(MaybeJSON("42")))
	assert.Equal(t, `"txn-1"`, string(MaybeJSON("txn-1")))
	assert.Equal(t, `{"key":"a","ts":1}`, string(MaybeJSON(`{"key":"a","ts":1}`)))
	assert.Equal(t, `"\"unterminated"`, string(MaybeJSON(`"unterminated`)))
}

func TestUint64Keys(t *testing.T) {
	raw, err := ParseKey[uint64](Uint64Codec{}, "258")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 2}, raw)

	// Byte order must follow numeric order.
	lo, _ := ParseKey[uint64](Uint64Codec{}, "9")
	hi, _ := ParseKey[uint64](Uint64Codec{}, "10")
	assert.Negative(t, bytes.Compare(lo, hi))

	text, err := FormatKey[uint64](Uint64Codec{}, raw)
	require.NoError(t, err)
	assert.Equal(t, "258", text)

	_, err = ParseKey[uint64](Uint64Codec{}, "not-a-number")
	assert.Error(t, err)
	_, err = ParseKey[uint64](Uint64Codec{}, "-1")
	assert.Error(t, err)

	_, err = FormatKey[uint64](Uint64Codec{}, []byte{1, 2})
	assert.ErrorIs(t, err, ErrKeyWidth)
}

func TestStringKeys(t *testing.T) {
	raw, err := ParseKey[string](StringCodec{}, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "txn-1", string(raw))

	raw, err = ParseKey[string](StringCodec{}, `"quoted"`)
	require.NoError(t, err)
	assert.Equal(t, "quoted", string(raw))

	text, err := FormatKey[string](StringCodec{}, []byte("txn-1"))
	require.NoError(t, err)
	assert.Equal(t, `"txn-1"`, text)

	_, err = FormatKey[string](StringCodec{}, []byte{0xff, 0xfe})
	assert.Error(t, err)
}

func TestHexKeys(t *testing.T) {
	raw, err := ParseKey[HexBytes](BytesCodec{}, "0x0aff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0xff}, raw)

	raw, err = ParseKey[HexBytes](BytesCodec{}, "0x")
	require.NoError(t, err)
	assert.NotNil(t, raw)
	assert.Empty(t, raw)

	_, err = ParseKey[HexBytes](BytesCodec{}, "0xzz")
	assert.Error(t, err)
	_, err = ParseKey[HexBytes](BytesCodec{}, "12")
	assert.Error(t, err, "a JSON number is not a hex key")

	text, err := FormatKey[HexBytes](BytesCodec{}, []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, `"0xdead"`, text)
}

func TestMVCCKeys(t *testing.T) {
	raw, err := ParseKey[MVCCKey](MVCCCodec{}, `{"key":"userKey","ts":100}`)
	require.NoError(t, err)

	k, err := MVCCCodec{}.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, MVCCKey{Key: "userKey", Ts: 100}, k)

	text, err := FormatKey[MVCCKey](MVCCCodec{}, raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"userKey","ts":100}`, text)

	// Bare string means newest version.
	raw, err = ParseKey[MVCCKey](MVCCCodec{}, "userKey")
	require.NoError(t, err)
	k, _ = MVCCCodec{}.Decode(raw)
	assert.Equal(t, uint64(math.MaxUint64), k.Ts)

	// Newer timestamps sort before older ones.
	newer, _ := MVCCCodec{}.Encode(MVCCKey{Key: "k", Ts: 100})
	older, _ := MVCCCodec{}.Encode(MVCCKey{Key: "k", Ts: 50})
	assert.Negative(t, bytes.Compare(newer, older))

	_, err = MVCCCodec{}.Decode([]byte("short"))
	assert.ErrorIs(t, err, ErrKeyWidth)
	_, err = ParseKey[MVCCKey](MVCCCodec{}, "7")
	assert.Error(t, err)
}

func TestValidateRaftLog(t *testing.T) {
	ent := raftpb.Entry{Term: 2, Index: 7, Type: raftpb.EntryNormal, Data: []byte("put a 1")}
	val, err := ent.Marshal()
	require.NoError(t, err)

	assert.NoError(t, Validate(RaftLog, RaftLogKey(7), val))
	assert.Error(t, Validate(RaftLog, RaftLogKey(8), val), "index mismatch")
	assert.ErrorIs(t, Validate(RaftLog, []byte{7}, val), ErrKeyWidth)
	assert.Error(t, Validate(RaftLog, RaftLogKey(7), []byte{0xff, 0xff, 0xff}))
}

func TestValidateOtherTables(t *testing.T) {
	key, _ := MVCCCodec{}.Encode(MVCCKey{Key: "a", Ts: 1})
	assert.NoError(t, Validate(Data, key, []byte("anything")))
	assert.ErrorIs(t, Validate(Data, []byte("a"), nil), ErrKeyWidth)
	assert.NoError(t, Validate(Txns, []byte("txn-1"), nil))
	assert.Error(t, Validate(Txns, []byte{0xff}, nil))
	assert.NoError(t, Validate(Ranges, []byte{0xff}, nil))
	assert.ErrorIs(t, Validate(Table(42), nil, nil), ErrUnknownTable)
}
