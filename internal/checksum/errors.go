package checksum

import "fmt"

// RangeDecodeError is returned when a boundary key cannot be decoded for
// the target table. No iteration has happened.
type RangeDecodeError struct {
	Table string
	Input string
	Err   error
}

func (e *RangeDecodeError) Error() string {
	return fmt.Sprintf("decode key %q for table %s: %v", e.Input, e.Table, e.Err)
}

func (e *RangeDecodeError) Unwrap() error { return e.Err }

// TransactionError is returned when the store cannot provide a read
// transaction or cursor. No iteration has happened.
type TransactionError struct {
	Table string
	Op    string
	Err   error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s on table %s: %v", e.Op, e.Table, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// RecordDecodeError aborts a walk mid-way. Index is the position of the
// failing record, or of the next record when the cursor itself failed.
type RecordDecodeError struct {
	Table string
	Index int
	Key   []byte
	Err   error
}

func (e *RecordDecodeError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("read table %s at record %d: %v", e.Table, e.Index, e.Err)
	}
	return fmt.Sprintf("read table %s at record %d (key 0x%x): %v", e.Table, e.Index, e.Key, e.Err)
}

func (e *RecordDecodeError) Unwrap() error { return e.Err }
