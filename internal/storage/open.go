package storage

import "fmt"

// Kind names an Engine implementation.
type Kind string

const (
	KindPebble Kind = "pebble"
	KindLog    Kind = "log"
	KindMemory Kind = "memory"
)

// Open opens the engine of the given kind at path. With readOnly set the
// store is never created or modified by opening it.
func Open(kind Kind, path string, readOnly bool) (Engine, error) {
	switch kind {
	case KindPebble:
		e, err := OpenPebble(path, PebbleOptions{ReadOnly: readOnly})
		if err != nil {
			return nil, err
		}
		return e, nil
	case KindLog:
		e, err := OpenLog(path, LogOptions{ReadOnly: readOnly})
		if err != nil {
			return nil, err
		}
		return e, nil
	case KindMemory:
		return NewMemoryEngine(), nil
	default:
		return nil, fmt.Errorf("unknown storage engine %q", kind)
	}
}
