package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// PartitionError is a failed partition insert. Its rows were not written.
type PartitionError struct {
	Partition int
	Rows      int
	Err       error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("partition %d (%d rows): %v", e.Partition, e.Rows, e.Err)
}

func (e *PartitionError) Unwrap() error { return e.Err }

// PartitionResult is the outcome of one partition.
type PartitionResult struct {
	Partition int
	Rows      int
	Inserted  int64
	Duration  time.Duration
	Err       error
}

// LoadReport aggregates partition outcomes in partition order. Skipped empty
// partitions are not listed.
type LoadReport struct {
	Results  []PartitionResult
	Duration time.Duration
}

// Inserted is the number of rows committed.
func (r LoadReport) Inserted() int64 {
	var n int64
	for _, p := range r.Results {
		n += p.Inserted
	}
	return n
}

// FailedRows is the number of rows in partitions that failed.
func (r LoadReport) FailedRows() int {
	n := 0
	for _, p := range r.Results {
		if p.Err != nil {
			n += p.Rows
		}
	}
	return n
}

// Failed returns the failed partitions.
func (r LoadReport) Failed() []PartitionResult {
	var out []PartitionResult
	for _, p := range r.Results {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

// Err combines every partition error, or nil.
func (r LoadReport) Err() error {
	var err error
	for _, p := range r.Results {
		err = multierr.Append(err, p.Err)
	}
	return err
}

// Loader inserts partitions concurrently, one connection and one
// transaction per partition.
type Loader struct {
	Open    Opener
	Columns []string
	// Workers bounds concurrent partitions; < 1 means one per partition.
	Workers int
	Log     logrus.FieldLogger
}

// Load inserts every non-empty partition and returns once all of them have
// finished. A failing partition is logged and recorded; it never cancels
// the others.
func (l *Loader) Load(ctx context.Context, parts [][][]any) LoadReport {
	log := l.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	start := time.Now()
	results := make([]PartitionResult, len(parts))

	var g errgroup.Group
	limit := l.Workers
	if limit < 1 {
		limit = len(parts)
	}
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, rows := range parts {
		if len(rows) == 0 {
			continue
		}
		i, rows := i, rows
		g.Go(func() error {
			t0 := time.Now()
			n, err := l.insert(ctx, rows)
			res := PartitionResult{Partition: i, Rows: len(rows), Inserted: n, Duration: time.Since(t0)}
			fields := logrus.Fields{
				"partition": i,
				"rows":      len(rows),
				"elapsed":   res.Duration.Truncate(time.Millisecond),
			}
			if err != nil {
				res.Inserted = 0
				res.Err = &PartitionError{Partition: i, Rows: len(rows), Err: err}
				log.WithFields(fields).WithError(err).Error("load.partition failed")
			} else {
				log.WithFields(fields).WithField("inserted", n).Info("load.partition")
			}
			results[i] = res
			// Failures stay in the report so siblings keep running.
			return nil
		})
	}
	_ = g.Wait()

	report := LoadReport{Duration: time.Since(start)}
	for i, rows := range parts {
		if len(rows) > 0 {
			report.Results = append(report.Results, results[i])
		}
	}
	return report
}

func (l *Loader) insert(ctx context.Context, rows [][]any) (n int64, err error) {
	if l.Open == nil {
		return 0, errors.New("storage: loader has no opener")
	}
	repo, err := l.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer repo.Close()
	return repo.CopyFrom(ctx, l.Columns, rows)
}
