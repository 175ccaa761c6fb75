package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sync"
)

// ErrCorrupt is returned by Iterate when a frame fails its CRC check or is
// cut short.
var ErrCorrupt = errors.New("wal: corrupt frame")

// ErrReadOnly is returned by Append on a log opened with OpenReadOnly.
var ErrReadOnly = errors.New("wal: read-only")

// WAL represents a Write Ahead Log.
type WAL struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	readOnly bool
}

// Open opens or creates a WAL file.
func Open(path string) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return &WAL{
		f:    f,
		path: path,
	}, nil
}

// OpenReadOnly opens an existing WAL file for reading only. The file is
// never created and no write handle is taken.
func OpenReadOnly(path string) (*WAL, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &WAL{
		f:        f,
		path:     path,
		readOnly: true,
	}, nil
}

// Path returns the file backing the log.
func (w *WAL) Path() string { return w.path }

// Append writes an entry to the WAL.
// Format: Len(4) | Data(N) | CRC(4)
func (w *WAL) Append(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.readOnly {
		return ErrReadOnly
	}
	frame := make([]byte, 4+len(data)+4)
	binary.BigEndian.PutUint32(frame[:4], uint32(len(data)))
	copy(frame[4:], data)
	binary.BigEndian.PutUint32(frame[4+len(data):], crc32.ChecksumIEEE(data))

	if _, err := w.f.Write(frame); err != nil {
		return err
	}
	return w.f.Sync()
}

// Iterate reads all entries from the WAL calling handler for each.
// A torn or mismatching frame stops iteration with ErrCorrupt.
func (w *WAL) Iterate(handler func(data []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()

	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	// Appends go to the end regardless (O_APPEND), but leave the
	// offset there for readers of Path.
	defer w.f.Seek(0, io.SeekEnd)

	var offset int64
	header := make([]byte, 4)
	for {
		if _, err := io.ReadFull(w.f, header); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("%w at offset %d: %v", ErrCorrupt, offset, err)
		}
		length := binary.BigEndian.Uint32(header)
		if remaining := size - offset - 4; int64(length)+4 > remaining {
			return fmt.Errorf("%w at offset %d: frame length %d exceeds %d remaining bytes", ErrCorrupt, offset, length, remaining)
		}

		body := make([]byte, int(length)+4)
		if _, err := io.ReadFull(w.f, body); err != nil {
			return fmt.Errorf("%w at offset %d: %v", ErrCorrupt, offset, err)
		}
		data := body[:length]
		if crc32.ChecksumIEEE(data) != binary.BigEndian.Uint32(body[length:]) {
			return fmt.Errorf("%w at offset %d: crc mismatch", ErrCorrupt, offset)
		}

		if err := handler(data); err != nil {
			return err
		}
		offset += int64(4 + len(body))
	}
}

func (w *WAL) Close() error {
	return w.f.Close()
}
