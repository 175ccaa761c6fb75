package checksum

import "log"

// DefaultProgressEvery is how often a walk reports progress.
const DefaultProgressEvery = 100_000

// Progress receives the number of records hashed so far. It is advisory
// and has no effect on the walk.
type Progress interface {
	Hashed(table string, n int)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(table string, n int)

func (f ProgressFunc) Hashed(table string, n int) { f(table, n) }

// LogProgress reports progress through logger, or the standard logger
// when logger is nil.
func LogProgress(logger *log.Logger) Progress {
	if logger == nil {
		logger = log.Default()
	}
	return ProgressFunc(func(table string, n int) {
		logger.Printf("%s: hashed %d entries", table, n)
	})
}

type noProgress struct{}

func (noProgress) Hashed(string, int) {}
