package checksum

import (
	"fmt"
	"log"
	"time"

	"github.com/myuser/shardsum/internal/tables"
)

// Result is the outcome of one successful walk.
type Result struct {
	Table     tables.Table
	Algorithm Algorithm
	Checksum  uint64
	Elapsed   time.Duration
	Records   int

	// FirstKey and EndKey are the raw keys of the first and last visited
	// records; both nil when the range was empty.
	FirstKey []byte
	EndKey   []byte

	// JSON forms of FirstKey and EndKey, or 0x-hex when the key could not
	// be decoded.
	FirstKeyJSON string
	EndKeyJSON   string
}

// ChecksumHex renders the checksum as a fixed-width hex value.
func (r *Result) ChecksumHex() string {
	return fmt.Sprintf("0x%016x", r.Checksum)
}

func (r *Result) String() string {
	return fmt.Sprintf("Checksum for table `%s`: %s (elapsed: %s)", r.Table, r.ChecksumHex(), r.Elapsed)
}

// Log writes the walk summary to logger, or the standard logger when nil.
func (r *Result) Log(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("Hashed %d entries.", r.Records)
	if r.Records > 0 {
		logger.Printf("start-key: %s", r.FirstKeyJSON)
		logger.Printf("end-key: %s", r.EndKeyJSON)
	}
	logger.Print(r.String())
}
