// Package history keeps a record of generation runs in SQLite.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome is the final status of a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Run is one generation run.
type Run struct {
	ID         string
	OutputRoot string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	// FailedState names the generation state that failed, empty on success.
	FailedState    string
	Error          string
	FileCount      int
	ManifestDigest string
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewRunID returns a fresh run id.
func NewRunID() string {
	return uuid.NewString()
}

// Store persists runs.
type Store interface {
	// Record stores a finished run.
	Record(ctx context.Context, run Run) error

	// Get returns the run with the given id.
	Get(ctx context.Context, id string) (Run, error)

	// Recent returns up to n runs, newest first.
	Recent(ctx context.Context, n int) ([]Run, error)

	// LastSuccessful returns the newest successful run for an output root.
	LastSuccessful(ctx context.Context, outputRoot string) (Run, bool, error)

	// Close closes the store and releases resources.
	Close() error
}
