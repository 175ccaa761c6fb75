package metrics

import (
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
)

// Counter names recorded by checksum walks.
const (
	Walks      = "checksum.walks"
	WalkErrors = "checksum.walk_errors"
	Records    = "checksum.records"
	Bytes      = "checksum.bytes"
)

// Global Registry using sync.Map for specific thread-safety on retrieval
// Keys are strings, Values are *int64
var registry sync.Map

// Inc increments a counter by 1.
func Inc(name string) {
	Add(name, 1)
}

// Add adds delta to a counter.
func Add(name string, delta int64) {
	val, ok := registry.Load(name)
	if !ok {
		newVal := new(int64)
		val, _ = registry.LoadOrStore(name, newVal)
	}
	atomic.AddInt64(val.(*int64), delta)
}

// Get returns the current value of a counter.
func Get(name string) int64 {
	val, ok := registry.Load(name)
	if !ok {
		return 0
	}
	return atomic.LoadInt64(val.(*int64))
}

// Snapshot copies every counter.
func Snapshot() map[string]int64 {
	out := make(map[string]int64)
	registry.Range(func(key, value any) bool {
		out[key.(string)] = atomic.LoadInt64(value.(*int64))
		return true
	})
	return out
}

// WriteJSON writes all counters as one JSON object.
func WriteJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(Snapshot())
}
