package tables

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// KeyCodec converts between a table's typed key K and its raw stored bytes.
type KeyCodec[K any] interface {
	Encode(key K) ([]byte, error)
	Decode(raw []byte) (K, error)
}

// MaybeJSON returns text unchanged if it is valid JSON, otherwise text
// quoted as a JSON string. So `42` is a number and `txn-1` a string.
func MaybeJSON(text string) []byte {
	if json.Valid([]byte(text)) {
		return []byte(text)
	}
	quoted, _ := json.Marshal(text)
	return quoted
}

// ParseKey decodes user supplied text into the raw key bytes of a table.
func ParseKey[K any](codec KeyCodec[K], text string) ([]byte, error) {
	var key K
	if err := json.Unmarshal(MaybeJSON(text), &key); err != nil {
		return nil, err
	}
	return codec.Encode(key)
}

// FormatKey reverse-decodes raw key bytes to their JSON form.
func FormatKey[K any](codec KeyCodec[K], raw []byte) (string, error) {
	key, err := codec.Decode(raw)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(key)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ErrKeyWidth is returned when a raw key does not have the width its table
// requires.
var ErrKeyWidth = errors.New("unexpected key width")

// Uint64Codec stores uint64 keys big-endian so byte order matches numeric
// order.
type Uint64Codec struct{}

func (Uint64Codec) Encode(key uint64) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, key)
	return buf, nil
}

func (Uint64Codec) Decode(raw []byte) (uint64, error) {
	if len(raw) != 8 {
		return 0, fmt.Errorf("%w: want 8 bytes, got %d", ErrKeyWidth, len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

// StringCodec stores UTF-8 string keys verbatim.
type StringCodec struct{}

func (StringCodec) Encode(key string) ([]byte, error) {
	return []byte(key), nil
}

func (StringCodec) Decode(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", errors.New("key is not valid UTF-8")
	}
	return string(raw), nil
}

// HexBytes is a byte key written in JSON as a 0x-prefixed hex string.
type HexBytes []byte

func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString(b))
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hex key must be a string: %w", err)
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*b = raw
	return nil
}

// BytesCodec stores arbitrary byte keys.
type BytesCodec struct{}

func (BytesCodec) Encode(key HexBytes) ([]byte, error) {
	if key == nil {
		return []byte{}, nil
	}
	return key, nil
}

func (BytesCodec) Decode(raw []byte) (HexBytes, error) {
	out := make(HexBytes, len(raw))
	copy(out, raw)
	return out, nil
}
