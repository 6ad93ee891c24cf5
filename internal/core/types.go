package core

// HeaderIndex maps source field names to their position in a source row.
type HeaderIndex map[string]int

// RowReader produces source rows one at a time. Read returns io.EOF once the
// input is exhausted.
type RowReader interface {
	Read() ([]string, error)
}

// RowWriter appends one target row to the output.
type RowWriter interface {
	Write(row []string) error
}

// flusher is implemented by buffered row writers.
type flusher interface {
	Flush() error
}

// RunCounters tracks one conversion run.
type RunCounters struct {
	Processed int // source rows read, header included
	Saved     int // target rows written, header included
	Skipped   int // rows vetoed by the before-row hook
}

// BeforeRowFunc is called before a data row is mapped. Returning false skips
// the row; returning an error aborts the run.
type BeforeRowFunc func(rowsProcessed int, row []string) (bool, error)

// AfterRowFunc is called after a target row (or the target header) has been
// written. Returning an error aborts the run.
type AfterRowFunc func(rowsSaved int, source, target []string) error

// CompletedFunc is called once at the end of a successful run.
type CompletedFunc func(rowsSaved int)

func proceedAlways(int, []string) (bool, error) { return true, nil }

func ignoreConverted(int, []string, []string) error { return nil }

func ignoreCompleted(int) {}
