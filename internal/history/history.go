// Package history records the outcome of every conversion run.
//
// A Store keeps one Run per conversion: which mapping was used, the row
// counters, and the error code when the run failed. PostgresStore persists
// runs in the conversion_runs table; MemoryStore keeps a bounded in-process
// list for deployments without a database.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit caps List results when no limit is given.
const DefaultListLimit = 50

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Status is the final state of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one finished conversion.
type Run struct {
	ID           uuid.UUID `json:"id"`
	Mapping      string    `json:"mapping"`
	SourceName   string    `json:"sourceName,omitempty"`
	TargetName   string    `json:"targetName,omitempty"`
	Status       Status    `json:"status"`
	Processed    int       `json:"rowsProcessed"`
	Saved        int       `json:"rowsSaved"`
	Skipped      int       `json:"rowsSkipped"`
	BytesRead    int64     `json:"bytesRead"`
	ErrorCode    string    `json:"errorCode,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// Succeeded reports whether the run completed without error.
func (r Run) Succeeded() bool { return r.Status == StatusSucceeded }

// Elapsed returns how long the run took.
func (r Run) Elapsed() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// ListOptions filters List. Zero values mean "any".
type ListOptions struct {
	Mapping string
	Status  Status
	Limit   int
	Offset  int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Store persists runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	Get(ctx context.Context, id uuid.UUID) (Run, error)
	List(ctx context.Context, opts ListOptions) ([]Run, error)
}
