package tables

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// MVCCKey is a user key at a commit timestamp.
type MVCCKey struct {
	Key string `json:"key"`
	Ts  uint64 `json:"ts"`
}

// UnmarshalJSON accepts either {"key":..,"ts":..} or a bare string. A bare
// string means the newest version, which sorts first for that user key.
func (k *MVCCKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = MVCCKey{Key: s, Ts: math.MaxUint64}
		return nil
	}
	type plain MVCCKey
	p := plain{Ts: math.MaxUint64}
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("mvcc key: %w", err)
	}
	*k = MVCCKey(p)
	return nil
}

// MVCCCodec appends the inverted timestamp to the user key.
// Format: Key + BE(MaxUint64 - ts), so newer versions of a key sort first.
type MVCCCodec struct{}

func (MVCCCodec) Encode(k MVCCKey) ([]byte, error) {
	buf := make([]byte, len(k.Key)+8)
	copy(buf, k.Key)
	binary.BigEndian.PutUint64(buf[len(k.Key):], math.MaxUint64-k.Ts)
	return buf, nil
}

func (MVCCCodec) Decode(raw []byte) (MVCCKey, error) {
	if len(raw) < 8 {
		return MVCCKey{}, fmt.Errorf("%w: mvcc key needs at least 8 bytes, got %d", ErrKeyWidth, len(raw))
	}
	n := len(raw) - 8
	return MVCCKey{
		Key: string(raw[:n]),
		Ts:  math.MaxUint64 - binary.BigEndian.Uint64(raw[n:]),
	}, nil
}
