// Package datasource defines where the workbook bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens the raw workbook for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in logs.
	Name() string
}
