package storage

import (
	"context"
	"fmt"
)

// DedupError wraps a failed recency deduplication.
type DedupError struct{ Err error }

func (e *DedupError) Error() string { return "dedup: " + e.Err.Error() }
func (e *DedupError) Unwrap() error { return e.Err }

// Dedup opens a connection and deletes superseded rows. Call it only after
// every insert of the run has finished.
func Dedup(ctx context.Context, open Opener) (int64, error) {
	repo, err := open(ctx)
	if err != nil {
		return 0, &DedupError{Err: fmt.Errorf("open: %w", err)}
	}
	defer repo.Close()
	n, err := repo.DeleteSuperseded(ctx)
	if err != nil {
		return 0, &DedupError{Err: err}
	}
	return n, nil
}
