package storage

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

// MemoryEngine implements Engine on top of an in-memory B-tree.
// Read transactions work on a copy-on-write clone of the tree, so a walk
// never sees writes made after BeginRead.
type MemoryEngine struct {
	mu     sync.RWMutex
	tree   *btree.BTree
	closed bool
}

type item struct {
	key   []byte
	value []byte
}

func (i *item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(*item).key) < 0
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		tree: btree.New(32),
	}
}

// Put writes a key-value pair. Both slices are copied.
func (s *MemoryEngine) Put(table string, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	v := make([]byte, len(value))
	copy(v, value)
	s.tree.ReplaceOrInsert(&item{key: physicalKey(table, key), value: v})
	return nil
}

// Get returns the value stored under key, or nil if absent.
func (s *MemoryEngine) Get(table string, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	found := s.tree.Get(&item{key: physicalKey(table, key)})
	if found == nil {
		return nil, nil
	}
	return found.(*item).value, nil
}

// Delete removes key from table. Deleting a missing key is not an error.
func (s *MemoryEngine) Delete(table string, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.tree.Delete(&item{key: physicalKey(table, key)})
	return nil
}

// Len returns the number of records across all tables.
func (s *MemoryEngine) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

func (s *MemoryEngine) BeginRead() (ReadTxn, error) {
	// Clone must not run concurrently with writers.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return &memoryTxn{tree: s.tree.Clone()}, nil
}

func (s *MemoryEngine) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type memoryTxn struct {
	tree *btree.BTree
}

func (t *memoryTxn) Walk(table string, r KeyRange, handler func(key, value []byte) bool) error {
	if t.tree == nil {
		return ErrClosed
	}
	lower, upper, ok := physicalBounds(table, r)
	if !ok {
		return nil
	}
	skip := len(table) + 1

	visit := func(i btree.Item) bool {
		it := i.(*item)
		return handler(it.key[skip:], it.value)
	}
	if upper == nil {
		t.tree.AscendGreaterOrEqual(&item{key: lower}, visit)
	} else {
		t.tree.AscendRange(&item{key: lower}, &item{key: upper}, visit)
	}
	return nil
}

func (t *memoryTxn) Release() {
	t.tree = nil
}
